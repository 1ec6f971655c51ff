package ports

import (
	"context"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// SummaryWriter publishes the human readable outcome of a run.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, report *domain.Report) error
}
