package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/headhunter"
	"github.com/spigell/resume-ranker/internal/jobs"
)

const forceFlagSetMsg = "force flag is set"

type appliedHistoryFilter struct {
	toggle
	ignore bool
}

// NewAppliedHistory creates a filter that removes hh.ru postings found in negotiation history.
func NewAppliedHistory() Filter {
	return &appliedHistoryFilter{}
}

func (f *appliedHistoryFilter) Name() string { return "applied_history" }

func (f *appliedHistoryFilter) Validate(cfg *Config) error {
	f.ignore = cfg != nil && cfg.IgnoreApplied
	return nil
}

func (f *appliedHistoryFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if f.ignore {
		deps.Logger.Info("ignoring already applied postings", zap.String("reason", forceFlagSetMsg))
		return p, Step{Initial: initial, Left: initial}, nil
	}

	if !hasSource(p, headhunter.Source) {
		return p, Step{Initial: initial, Left: initial}, nil
	}

	if deps.HH == nil {
		return p, Step{}, fmt.Errorf("headhunter client is required")
	}

	negotiations, err := deps.HH.GetNegotiations()
	if err != nil {
		return p, Step{}, fmt.Errorf("get my negotiations: %w", err)
	}

	applied := make(map[string]struct{})
	for _, id := range negotiations.VacanciesIDs() {
		applied[id] = struct{}{}
	}

	excluded := p.ExcludeFunc(func(posting *jobs.Posting) bool {
		_, ok := applied[posting.ID]
		return ok && posting.Source == headhunter.Source
	})
	if len(excluded) > 0 {
		deps.Logger.Info("excluding postings based on my negotiations",
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, step(initial, excluded, p), nil
}

func (f *appliedHistoryFilter) Status() Status {
	details := map[string]string{
		"exclude_applied": strconv.FormatBool(!f.ignore),
	}
	reason := f.reason
	if f.ignore && reason == "" {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}

func hasSource(p *jobs.Postings, source string) bool {
	for _, posting := range p.Items {
		if posting.Source == source {
			return true
		}
	}
	return false
}
