package ports

import (
	"context"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// DispatchService runs one manual build end to end.
type DispatchService interface {
	Run(ctx context.Context, req domain.BuildRequest) (*domain.Report, error)
}
