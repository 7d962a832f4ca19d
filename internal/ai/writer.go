package ai

import (
	"context"

	"github.com/spigell/resume-ranker/internal/jobs"
)

// Writer composes a cover message for a posting that was already ranked.
type Writer interface {
	Compose(ctx context.Context, resume string, posting *jobs.Posting) (string, error)
}
