package cli

import (
	"github.com/spf13/cobra"

	"github.com/melih/imagedispatch/internal/app"
	"github.com/melih/imagedispatch/internal/core/domain"
)

func newBuildCommand(e *env) *cobra.Command {
	req := domain.DefaultBuildRequest()

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build (and optionally push) an image for a branch or commit",
		Long: `Check out --commit-sha if given, otherwise the tip of --branch, then build the image
tagged <branch>-<suffix> and <branch>-<suffix>-<short sha>. The tip of main is also
tagged latest-<suffix>. With --push-image=false the image is built but neither the
registry login nor the push happens.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dispatcher, err := app.NewDispatcher(e.cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), e.logger)
			if err != nil {
				return err
			}
			_, err = dispatcher.Run(cmd.Context(), req)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Branch, "branch", req.Branch, "branch to build")
	flags.StringVar(&req.CommitSHA, "commit-sha", "", "specific commit to build (overrides the branch tip)")
	flags.StringVar(&req.TagSuffix, "tag-suffix", req.TagSuffix, "suffix distinguishing this build variant")
	flags.BoolVar(&req.PushImage, "push-image", req.PushImage, "log in and push the image")
	return cmd
}
