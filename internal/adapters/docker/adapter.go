package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// Adapter implements ports.RegistryService using the Docker SDK
type Adapter struct {
	cli    client.APIClient
	out    io.Writer
	logger *slog.Logger
}

// NewAdapter creates a new Docker adapter instance. Pull and push progress is written to out.
func NewAdapter(out io.Writer, logger *slog.Logger) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return newAdapter(cli, out, logger), nil
}

func newAdapter(cli client.APIClient, out io.Writer, logger *slog.Logger) *Adapter {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{cli: cli, out: out, logger: logger.With("component", "registry")}
}

// Login verifies the credentials against the registry.
func (a *Adapter) Login(ctx context.Context, creds domain.Credentials) error {
	resp, err := a.cli.RegistryLogin(ctx, authConfig(creds))
	if err != nil {
		return fmt.Errorf("failed to log in to %s: %w", creds.Registry, err)
	}
	a.logger.Info("logged in", "registry", creds.Registry, "status", resp.Status)
	return nil
}

// PullCache pulls the cache image so its layers can seed the build.
// Empty credentials pull anonymously, which only works for public caches.
func (a *Adapter) PullCache(ctx context.Context, ref string, creds domain.Credentials) error {
	var opts types.ImagePullOptions
	if !creds.Empty() {
		auth, err := registry.EncodeAuthConfig(authConfig(creds))
		if err != nil {
			return fmt.Errorf("failed to encode registry auth: %w", err)
		}
		opts.RegistryAuth = auth
	}

	reader, err := a.cli.ImagePull(ctx, ref, opts)
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(reader, a.out, 0, false, nil); err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	return nil
}

// Tag adds target as a name for the source image.
func (a *Adapter) Tag(ctx context.Context, source, target string) error {
	if err := a.cli.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("failed to tag image: %w", err)
	}
	return nil
}

// Push uploads ref. The daemon reports failures inside the progress stream,
// so the stream is read to the end before returning.
func (a *Adapter) Push(ctx context.Context, ref string, creds domain.Credentials) error {
	auth, err := registry.EncodeAuthConfig(authConfig(creds))
	if err != nil {
		return fmt.Errorf("failed to encode registry auth: %w", err)
	}

	reader, err := a.cli.ImagePush(ctx, ref, types.ImagePushOptions{RegistryAuth: auth})
	if err != nil {
		return fmt.Errorf("failed to push image: %w", err)
	}
	defer reader.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(reader, a.out, 0, false, nil); err != nil {
		return fmt.Errorf("failed to push image: %w", err)
	}
	a.logger.Info("pushed image", "ref", ref)
	return nil
}

func authConfig(creds domain.Credentials) registry.AuthConfig {
	return registry.AuthConfig{
		Username:      creds.Username,
		Password:      creds.Token,
		ServerAddress: creds.Registry,
	}
}
