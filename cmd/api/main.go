package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/melih/imagedispatch/internal/adapters/http"
	"github.com/melih/imagedispatch/internal/app"
	"github.com/melih/imagedispatch/internal/config"
	"github.com/melih/imagedispatch/internal/logging"
	"github.com/melih/imagedispatch/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.Load(viper.New(), os.Getenv("DISPATCH_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	shutdown, err := telemetry.Setup(cfg.Tracing.Enabled, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer shutdown(context.Background())

	// 2. Initialize Adapters and the dispatcher
	dispatcher, err := app.NewDispatcher(cfg, os.Stdout, os.Stderr, logger)
	if err != nil {
		log.Fatalf("Failed to initialize dispatcher: %v", err)
	}

	// 3. Start Server
	if err := http.Serve(ctx, http.NewApp(dispatcher), cfg.Server.Addr, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
