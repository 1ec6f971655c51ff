package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/melih/imagedispatch/internal/core/ports"
)

const shutdownTimeout = 10 * time.Second

// NewApp returns a Fiber app serving the dispatch routes.
func NewApp(service ports.DispatchService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "imagedispatch",
		DisableStartupMessage: true,
	})
	NewDispatchHandler(service).Register(app)
	return app
}

// Serve runs app on addr until ctx is canceled, then shuts it down gracefully.
func Serve(ctx context.Context, app *fiber.App, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
