// Package services holds the use cases that drive the ports.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/melih/imagedispatch/internal/core/domain"
	"github.com/melih/imagedispatch/internal/core/ports"
)

const tracerName = "github.com/melih/imagedispatch/internal/core/services"

// DispatchOptions configures where images go and how they are built.
type DispatchOptions struct {
	// Repository is the image repository, e.g. ghcr.io/acme/trainer.
	Repository string
	// CacheTag is the tag of the shared layer cache within Repository.
	CacheTag   string
	Dockerfile string
	// Source is the repository URL recorded in the image labels. May be empty.
	Source      string
	Credentials domain.Credentials
}

// Dispatcher implements ports.DispatchService as a single linear sequence of steps.
type Dispatcher struct {
	source   ports.SourceService
	builder  ports.BuilderService
	registry ports.RegistryService
	summary  ports.SummaryWriter
	opts     DispatchOptions
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
	newID    func() string
}

// NewDispatcher wires a Dispatcher. A nil logger falls back to slog.Default.
func NewDispatcher(
	source ports.SourceService,
	builder ports.BuilderService,
	registry ports.RegistryService,
	summary ports.SummaryWriter,
	opts DispatchOptions,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Dockerfile == "" {
		opts.Dockerfile = "Dockerfile"
	}
	return &Dispatcher{
		source:   source,
		builder:  builder,
		registry: registry,
		summary:  summary,
		opts:     opts,
		logger:   logger.With("component", "dispatcher"),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run checks out the requested revision, derives the tag set, builds the image and,
// when requested, pushes it together with the layer cache. The first failing step
// aborts the run and is reported as a *domain.StepError; earlier steps are not undone.
func (d *Dispatcher) Run(ctx context.Context, req domain.BuildRequest) (*domain.Report, error) {
	req = req.WithDefaults()
	started := d.now()

	report := &domain.Report{
		RunID:     d.newID(),
		Branch:    req.Branch,
		CommitSHA: req.CommitSHA,
		StartedAt: started,
	}
	log := d.logger.With("run_id", report.RunID)

	ctx, span := d.tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("dispatch.run_id", report.RunID),
		attribute.String("dispatch.branch", req.Branch),
		attribute.String("dispatch.commit_sha", req.CommitSHA),
		attribute.String("dispatch.tag_suffix", req.TagSuffix),
		attribute.Bool("dispatch.push_image", req.PushImage),
	))
	defer span.End()

	log.Info("dispatch started",
		"branch", req.Branch,
		"commit_sha", req.CommitSHA,
		"tag_suffix", req.TagSuffix,
		"push_image", req.PushImage,
	)

	err := d.run(ctx, log, req, report)
	report.Duration = d.now().Sub(started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("dispatch failed", "error", err, "duration", report.Duration)
		return report, err
	}

	log.Info("dispatch completed",
		"short_sha", report.ShortSHA,
		"tags", report.Tags,
		"pushed", report.Pushed,
		"duration", report.Duration,
	)
	return report, nil
}

func (d *Dispatcher) run(ctx context.Context, log *slog.Logger, req domain.BuildRequest, report *domain.Report) error {
	var co *domain.Checkout
	err := d.step(ctx, log, domain.StepCheckout, func(ctx context.Context) error {
		var err error
		co, err = d.source.Checkout(ctx, req.Ref())
		return err
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := d.source.Release(co); err != nil {
			log.Warn("failed to release checkout", "dir", co.Dir, "error", err)
		}
	}()
	report.FullSHA = co.Commit.FullSHA
	report.ShortSHA = co.Commit.ShortSHA

	err = d.step(ctx, log, domain.StepTags, func(ctx context.Context) error {
		report.Tags = domain.DeriveTags(req, co.Commit.ShortSHA)
		images, err := domain.ImageReferences(d.opts.Repository, report.Tags)
		if err != nil {
			return err
		}
		report.Images = images
		report.CacheRef, err = domain.CacheReference(d.opts.Repository, d.opts.CacheTag)
		return err
	})
	if err != nil {
		return err
	}

	creds := d.opts.Credentials
	if req.PushImage {
		err = d.step(ctx, log, domain.StepLogin, func(ctx context.Context) error {
			if creds.Empty() {
				return domain.ErrMissingCredentials
			}
			if creds.Registry == "" {
				host, err := domain.RegistryHost(d.opts.Repository)
				if err != nil {
					return err
				}
				creds.Registry = host
			}
			return d.registry.Login(ctx, creds)
		})
		if err != nil {
			return err
		}
	}

	// Registry credentials are only used when pushing; otherwise the cache is read anonymously.
	var pullCreds domain.Credentials
	if req.PushImage {
		pullCreds = creds
	}
	d.pullCache(ctx, log, report.CacheRef, pullCreds)

	err = d.step(ctx, log, domain.StepBuild, func(ctx context.Context) error {
		id, err := d.builder.BuildImage(ctx, domain.BuildSpec{
			ContextDir: co.Dir,
			Dockerfile: d.opts.Dockerfile,
			Tags:       report.Images,
			Labels:     domain.Labels(req, co.Commit, d.opts.Source, report.StartedAt),
			CacheFrom:  []string{report.CacheRef},
		})
		report.ImageID = id
		return err
	})
	if err != nil {
		return err
	}

	if req.PushImage {
		err = d.step(ctx, log, domain.StepPush, func(ctx context.Context) error {
			for _, ref := range report.Images {
				if err := d.registry.Push(ctx, ref, creds); err != nil {
					return fmt.Errorf("pushing %s: %w", ref, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		report.Pushed = true

		err = d.step(ctx, log, domain.StepCacheWrite, func(ctx context.Context) error {
			if err := d.registry.Tag(ctx, report.Images[0], report.CacheRef); err != nil {
				return err
			}
			return d.registry.Push(ctx, report.CacheRef, creds)
		})
		if err != nil {
			return err
		}
	} else {
		log.Info("push disabled, skipping login and push")
	}

	return d.step(ctx, log, domain.StepSummary, func(ctx context.Context) error {
		report.Duration = d.now().Sub(report.StartedAt)
		return d.summary.WriteSummary(ctx, report)
	})
}

// pullCache is read-through only: a missing or unreachable cache never fails the run.
func (d *Dispatcher) pullCache(ctx context.Context, log *slog.Logger, ref string, creds domain.Credentials) {
	ctx, span := d.tracer.Start(ctx, string(domain.StepCachePull))
	defer span.End()

	if err := d.registry.PullCache(ctx, ref, creds); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		span.AddEvent("cache miss")
		log.Warn("build cache unavailable", "cache_ref", ref, "error", err)
		return
	}
	log.Info("build cache pulled", "cache_ref", ref)
}

func (d *Dispatcher) step(ctx context.Context, log *slog.Logger, step domain.Step, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &domain.StepError{Step: step, Err: err}
	}

	ctx, span := d.tracer.Start(ctx, string(step))
	defer span.End()

	start := d.now()
	log.Info("step started", "step", step)
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("step failed", "step", step, "error", err)
		return &domain.StepError{Step: step, Err: err}
	}
	log.Info("step finished", "step", step, "duration", d.now().Sub(start))
	return nil
}
