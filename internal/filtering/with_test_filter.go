package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/jobs"
)

type withTestFilter struct {
	toggle
}

// NewWithTest creates a filter that removes postings requiring tests.
func NewWithTest() Filter {
	return &withTestFilter{}
}

func (f *withTestFilter) Name() string { return "with_test" }

func (f *withTestFilter) Validate(*Config) error { return nil }

func (f *withTestFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	excluded := p.ExcludeWithTest()
	if len(excluded) > 0 {
		deps.Logger.Info("excluding postings with tests. It is impossible to apply them",
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, step(initial, excluded, p), nil
}
