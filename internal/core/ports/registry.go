package ports

import (
	"context"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// RegistryService defines the registry-facing operations of a dispatch run.
// Implementations may be backed by a Docker daemon, Podman or a remote builder.
type RegistryService interface {
	Login(ctx context.Context, creds domain.Credentials) error
	// PullCache makes ref available locally so the builder can reuse its layers.
	// Empty creds pull anonymously.
	PullCache(ctx context.Context, ref string, creds domain.Credentials) error
	Tag(ctx context.Context, source, target string) error
	Push(ctx context.Context, ref string, creds domain.Credentials) error
}
