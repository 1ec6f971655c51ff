package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// ErrNoImageID is returned when the daemon finished a build without reporting the image.
var ErrNoImageID = errors.New("build finished without an image id")

type Adapter struct {
	cli    client.APIClient
	out    io.Writer
	logger *slog.Logger
}

// NewBuilderAdapter connects to the Docker daemon. Build output is streamed to out.
func NewBuilderAdapter(out io.Writer, logger *slog.Logger) (*Adapter, error) {
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
	return &Adapter{cli: cli, out: out, logger: logger.With("component", "builder")}
}

// BuildImage builds spec.ContextDir with every tag applied and returns the image ID.
func (a *Adapter) BuildImage(ctx context.Context, spec domain.BuildSpec) (string, error) {
	// 1. Create Build Context (Tar)
	tar, err := archive.TarWithOptions(spec.ContextDir, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create build context: %w", err)
	}
	defer tar.Close()

	// 2. Build Docker Image
	a.logger.Info("building image", "context", spec.ContextDir, "tags", spec.Tags)
	resp, err := a.cli.ImageBuild(ctx, tar, buildOptions(spec))
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	// 3. Wait for the build to complete; errors only show up in the stream.
	var imageID string
	err = jsonmessage.DisplayJSONMessagesStream(resp.Body, a.out, 0, false, func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}
		var result types.BuildResult
		if err := json.Unmarshal(*msg.Aux, &result); err == nil && result.ID != "" {
			imageID = result.ID
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	if imageID == "" {
		return "", ErrNoImageID
	}

	a.logger.Info("built image", "id", imageID)
	return imageID, nil
}

func buildOptions(spec domain.BuildSpec) types.ImageBuildOptions {
	dockerfile := spec.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}
	return types.ImageBuildOptions{
		Tags:        spec.Tags,
		Dockerfile:  dockerfile,
		Labels:      spec.Labels,
		CacheFrom:   spec.CacheFrom,
		Remove:      true, // Remove intermediate containers
		ForceRemove: true,
		PullParent:  true,
	}
}
