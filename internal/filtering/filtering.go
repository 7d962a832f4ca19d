// Package filtering narrows down job postings before they are shown.
// Steps run in order; the last one ranks what is left against the résumé.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/headhunter"
	"github.com/spigell/resume-ranker/internal/jobs"
)

// Filter represents a single filtering step applied to postings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error)
}

// NegotiationsSource lists the negotiations the user already started.
type NegotiationsSource interface {
	GetNegotiations() (*headhunter.Negotiations, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	HH     NegotiationsSource
	Logger *zap.Logger
	// Resume is the plain text of the résumé postings are ranked against.
	Resume string
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	Employers     []string
	ExcludeFile   string
	IgnoreApplied bool
	Ranking       *RankingConfig
}

// RankingConfig controls the relevance step.
type RankingConfig struct {
	// Recommendations is the number of postings kept. Zero keeps all.
	Recommendations int
	MinimumScore    float64
	Normalizer      string
	Stopwords       []string
	SublinearTF     bool
	ExplainTerms    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default returns every step in execution order.
func Default() []Filter {
	return []Filter{
		NewWithTest(),
		NewAppliedHistory(),
		NewEmployers(),
		NewExcludeFile(),
		NewRelevance(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates and then executes the enabled filters sequentially.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, p *jobs.Postings) (*jobs.Postings, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, info, err := step.Apply(ctx, deps, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		p = next
	}

	return p, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle implements Disable and IsEnabled for filters that can be switched off.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func step(initial int, dropped []string, p *jobs.Postings) Step {
	return Step{Initial: initial, Dropped: len(dropped), Left: p.Len()}
}
