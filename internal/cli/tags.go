package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/melih/imagedispatch/internal/core/domain"
)

func newTagsCommand() *cobra.Command {
	req := domain.DefaultBuildRequest()
	var shortSHA string

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Print the tags a build would produce",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shortSHA == "" {
				return errors.New("--short-sha is required")
			}
			for _, tag := range domain.DeriveTags(req.WithDefaults(), domain.ShortSHA(shortSHA)) {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Branch, "branch", req.Branch, "branch to build")
	flags.StringVar(&req.CommitSHA, "commit-sha", "", "specific commit to build")
	flags.StringVar(&req.TagSuffix, "tag-suffix", req.TagSuffix, "suffix distinguishing this build variant")
	flags.StringVar(&shortSHA, "short-sha", "", "commit hash to tag with (abbreviated to 7 characters)")
	return cmd
}
