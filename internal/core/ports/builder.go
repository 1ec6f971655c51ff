package ports

import (
	"context"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// BuilderService defines operations for building container images from a checked out tree.
type BuilderService interface {
	// BuildImage builds spec.ContextDir and applies every tag in spec.Tags.
	// It returns the ID of the built image or an error.
	BuildImage(ctx context.Context, spec domain.BuildSpec) (string, error)
}
