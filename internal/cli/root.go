// Package cli implements the dispatch command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/melih/imagedispatch/internal/config"
	"github.com/melih/imagedispatch/internal/logging"
	"github.com/melih/imagedispatch/internal/telemetry"
)

// env is the state shared by subcommands once the root has loaded configuration.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	shutdown telemetry.Shutdown
}

// NewRootCommand builds the dispatch command tree.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	e := &env{}
	var configPath string

	root := &cobra.Command{
		Use:           "dispatch",
		Short:         "Manually trigger container image builds",
		Long:          `Check out a branch or commit, derive image tags, build the image and optionally push it with a registry-backed layer cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			shutdown, err := telemetry.Setup(cfg.Tracing.Enabled, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			e.cfg, e.logger, e.shutdown = cfg, logger, shutdown
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.shutdown == nil {
				return nil
			}
			return e.shutdown(context.Background())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.Bool("trace", false, "print OpenTelemetry spans to stderr")
	for key, name := range map[string]string{
		"log.level":       "log-level",
		"log.format":      "log-format",
		"tracing.enabled": "trace",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(newBuildCommand(e), newTagsCommand(), newServeCommand(e))
	return root
}

// Execute runs the root command and reports the error to stderr.
func Execute(ctx context.Context, stderr io.Writer) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
