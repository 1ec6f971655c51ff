// Package app wires adapters into a dispatcher from configuration.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/melih/imagedispatch/internal/adapters/builder"
	"github.com/melih/imagedispatch/internal/adapters/docker"
	"github.com/melih/imagedispatch/internal/adapters/git"
	"github.com/melih/imagedispatch/internal/adapters/summary"
	"github.com/melih/imagedispatch/internal/config"
	"github.com/melih/imagedispatch/internal/core/services"
)

// NewDispatcher builds a dispatcher backed by go-git and the local Docker daemon.
// Build and push progress goes to progress, the summary to out.
func NewDispatcher(cfg *config.Config, out, progress io.Writer, logger *slog.Logger) (*services.Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1. Initialize Adapters (Infrastructure)
	source := git.NewAdapter(git.Options{
		URL:      cfg.Repository.URL,
		Path:     cfg.Repository.Path,
		WorkDir:  cfg.Repository.WorkDir,
		Token:    cfg.RepositoryToken(),
		Progress: progress,
	}, logger)

	imageBuilder, err := builder.NewBuilderAdapter(progress, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing builder: %w", err)
	}

	registry, err := docker.NewAdapter(progress, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing registry client: %w", err)
	}

	writer, err := summary.NewWriter(out, cfg.Summary.Format, os.Getenv(summary.StepSummaryEnv))
	if err != nil {
		return nil, err
	}

	// 2. Initialize the use case
	return services.NewDispatcher(source, imageBuilder, registry, writer, services.DispatchOptions{
		Repository:  cfg.ImageRepository(),
		CacheTag:    cfg.Image.CacheTag,
		Dockerfile:  cfg.Image.Dockerfile,
		Source:      sourceURL(cfg.Repository.URL),
		Credentials: cfg.Credentials(),
	}, logger), nil
}

// sourceURL strips the .git suffix so the label points at the browsable repository.
func sourceURL(url string) string {
	return strings.TrimSuffix(url, ".git")
}
