package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/jobs"
)

type employersFilter struct {
	toggle
	employers []string
}

// NewEmployers creates a filter that removes postings by employers configured in the config.
func NewEmployers() Filter {
	return &employersFilter{}
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Validate(cfg *Config) error {
	f.employers = nil
	if cfg != nil {
		f.employers = append(f.employers, cfg.Employers...)
	}
	return nil
}

func (f *employersFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if len(f.employers) == 0 {
		return p, Step{Initial: initial, Left: initial}, nil
	}

	excluded := p.Exclude(jobs.PostingEmployerIDField, f.employers)
	if len(excluded) > 0 {
		deps.Logger.Info("excluding postings by employers",
			zap.Strings("excluded_employers", f.employers),
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, step(initial, excluded, p), nil
}

func (f *employersFilter) Status() Status {
	details := map[string]string{}
	if len(f.employers) > 0 {
		details["employers"] = strings.Join(f.employers, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
