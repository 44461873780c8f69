package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reviewbotdev/reviewbot/internal/installer"
)

func initCommand() *cobra.Command {
	var opts installer.Options

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold the reviewbot workflow and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := installer.Install(opts)
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Written {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", r.Path)
				} else {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "skipped %s (exists, use --force to overwrite)\n", r.Path)
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  1. Commit .github/workflows/reviewbot.yml and .reviewbot.json")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  2. Open a PR or comment /review on one")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Endpoint, "endpoint", "", "Review API URL (required)")
	flags.StringVar(&opts.ActionRef, "action", "", "Action reference to use in the workflow")
	flags.StringVar(&opts.Mode, "mode", "safe", "Review mode (safe or trusted)")
	flags.StringVar(&opts.Root, "root", "", "Repository root (defaults to the working directory)")
	flags.BoolVar(&opts.Force, "force", false, "Overwrite existing files")
	_ = cmd.MarkFlagRequired("endpoint")

	return cmd
}
