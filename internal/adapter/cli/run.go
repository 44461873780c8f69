package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reviewbotdev/reviewbot/internal/adapter/github"
	"github.com/reviewbotdev/reviewbot/internal/adapter/httpx"
	"github.com/reviewbotdev/reviewbot/internal/adapter/reviewapi"
	"github.com/reviewbotdev/reviewbot/internal/config"
	"github.com/reviewbotdev/reviewbot/internal/usecase/pipeline"
	"github.com/reviewbotdev/reviewbot/internal/usecase/publish"
)

func runCommand(settings config.Settings, logger *httpx.Logger) *cobra.Command {
	run := settings.Run

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Review the pull request described by the workflow event",
		RunE: func(cmd *cobra.Command, args []string) error {
			if run.ReviewAPIURL == "" {
				return fmt.Errorf("review API URL not configured (set REVIEW_API_URL)")
			}
			if run.GithubToken == "" {
				return fmt.Errorf("github token not configured (set GITHUB_TOKEN)")
			}
			if run.Repository == "" {
				return fmt.Errorf("repository not set (set GITHUB_REPOSITORY)")
			}

			event, err := github.ReadEvent(run.EventPath)
			if err != nil {
				return err
			}

			host := github.NewClient(run.GithubToken)
			reviewer := reviewapi.NewClient(run.ReviewAPIURL, run.OIDCAudience, reviewapi.NewActionsTokenSource())
			poster := publish.NewPublisher(host, logger)

			driver := pipeline.NewDriver(host, reviewer, poster, run, logger)
			result, err := driver.Run(cmd.Context(), event)
			if err != nil {
				return err
			}

			switch result.Outcome {
			case pipeline.OutcomeSkipped:
				logger.Info("review skipped", httpx.Fields{"reason": result.Reason})
			case pipeline.OutcomeDryRun:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.Summary)
			case pipeline.OutcomeReviewed:
				logger.Info("review complete", httpx.Fields{"inline_comments": result.PostedInline})
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&run.Mode, "mode", run.Mode, "Review mode (safe or trusted)")
	flags.BoolVar(&run.DryRun, "dry-run", run.DryRun, "Render the summary without posting to the PR")
	flags.BoolVar(&run.PostSummary, "post-summary", run.PostSummary, "Upsert the summary comment")
	flags.BoolVar(&run.PostInline, "post-inline", run.PostInline, "Post inline finding comments")
	flags.BoolVar(&run.CreateCheckRun, "create-check-run", run.CreateCheckRun, "Create a check run with the summary")
	flags.StringVar(&run.ConfigPath, "config-path", run.ConfigPath, "Repo-local config path")
	flags.StringVar(&run.Focus, "focus", run.Focus, "Reviewer focus hint")
	flags.IntVar(&run.MaxComments, "max-comments", run.MaxComments, "Inline comment cap")
	flags.StringVar(&run.MinSeverity, "min-severity", run.MinSeverity, "Minimum severity for inline comments")

	return cmd
}
