package cli

import (
	"github.com/spf13/cobra"

	"github.com/melih/imagedispatch/internal/adapters/http"
	"github.com/melih/imagedispatch/internal/app"
)

func newServeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Accept dispatches over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dispatcher, err := app.NewDispatcher(e.cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), e.logger)
			if err != nil {
				return err
			}
			return http.Serve(cmd.Context(), http.NewApp(dispatcher), e.cfg.Server.Addr, e.logger)
		},
	}
}
