package ports

import (
	"context"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// SourceService checks out a revision of the repository being built.
type SourceService interface {
	// Checkout positions a working tree at ref. A pinned ref is resolved as a commit hash
	// only; a branch ref is resolved as a branch only.
	Checkout(ctx context.Context, ref domain.Ref) (*domain.Checkout, error)
	// Release frees anything Checkout allocated. Implementations sharing a working tree
	// between runs hold it from Checkout until Release.
	Release(co *domain.Checkout) error
}
