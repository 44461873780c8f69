// Package pipeline orchestrates one review of one pull request: label
// policy, file collection and shaping, remote review submission, and
// publication of the result back to the PR.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/reviewbotdev/reviewbot/internal/adapter/github"
	"github.com/reviewbotdev/reviewbot/internal/adapter/httpx"
	"github.com/reviewbotdev/reviewbot/internal/adapter/output/markdown"
	"github.com/reviewbotdev/reviewbot/internal/adapter/reviewapi"
	"github.com/reviewbotdev/reviewbot/internal/config"
	"github.com/reviewbotdev/reviewbot/internal/domain"
	"github.com/reviewbotdev/reviewbot/internal/usecase/command"
	"github.com/reviewbotdev/reviewbot/internal/usecase/payload"
	"github.com/reviewbotdev/reviewbot/internal/usecase/policy"
	"github.com/reviewbotdev/reviewbot/internal/usecase/publish"
)

const (
	checkRunName       = "ReviewBot"
	checkSummaryLimit  = 65000
	reportArtifactName = "reviewbot-report.json"
)

// SourceControl is the read side of the host API the driver needs.
type SourceControl interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	ListPullFiles(ctx context.Context, owner, repo string, number int) ([]github.PullFile, error)
	CreateCheckRun(ctx context.Context, owner, repo string, input github.CheckRunInput) error
}

// Reviewer submits a shaped request to the review service.
type Reviewer interface {
	Submit(ctx context.Context, request domain.ReviewRequest) (*reviewapi.Response, error)
}

// Poster publishes review output onto the pull request.
type Poster interface {
	UpsertSummary(ctx context.Context, owner, repo string, number int, body string) (publish.UpsertResult, error)
	PostFindings(ctx context.Context, owner, repo string, number int, findings []domain.FindingComment, pol publish.InlinePolicy) int
}

// Outcome classifies how an invocation ended.
type Outcome string

const (
	OutcomeSkipped  Outcome = "skipped"
	OutcomeDryRun   Outcome = "dry-run"
	OutcomeReviewed Outcome = "reviewed"
)

// Result summarizes a completed invocation.
type Result struct {
	Outcome      Outcome
	Reason       string // set when skipped
	Summary      string // rendered summary document
	PostedInline int
	Review       *domain.ReviewResult
}

// Driver runs the review pipeline for single pull request events.
type Driver struct {
	host     SourceControl
	reviewer Reviewer
	poster   Poster
	settings config.RunSettings
	logger   *httpx.Logger
}

// NewDriver wires a pipeline driver from its collaborators.
func NewDriver(host SourceControl, reviewer Reviewer, poster Poster, settings config.RunSettings, logger *httpx.Logger) *Driver {
	return &Driver{
		host:     host,
		reviewer: reviewer,
		poster:   poster,
		settings: settings,
		logger:   logger,
	}
}

// Run executes the pipeline for the given event. Label policy is
// evaluated right after the single PR fetch, before any other network
// call. Publishing fans out to summary upsert, check run creation, and
// inline posting independently; a check run failure is absorbed, a
// summary failure is fatal, and inline posting only runs when summary
// posting is enabled by configuration.
func (d *Driver) Run(ctx context.Context, event *github.Event) (*Result, error) {
	owner, repo, err := splitRepository(d.settings.Repository)
	if err != nil {
		return nil, err
	}
	number := event.PullNumber()
	if number == 0 {
		return nil, fmt.Errorf("could not determine pull request number from event payload")
	}

	resolution, cfgErr := config.ResolveRepoConfig(d.settings.Workspace, d.settings.ConfigPath)
	if cfgErr != nil {
		d.logger.Warn("repo config unusable, using defaults", httpx.Fields{
			"path": resolution.Path,
			"err":  cfgErr.Error(),
		})
	}
	cfg := resolution.Config

	pr, err := d.host.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.Name)
	}
	decision := policy.CheckLabels(labels, policy.LabelRules{
		SkipIfPresent:    cfg.Policies.SkipIfLabelPresent,
		RunOnlyIfPresent: cfg.Policies.RunOnlyIfLabelPresent,
	})
	if decision.Skip {
		d.logger.Info("skipping review", httpx.Fields{"reason": decision.Reason})
		return &Result{Outcome: OutcomeSkipped, Reason: decision.Reason}, nil
	}

	files, err := d.host.ListPullFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	candidates := make([]domain.FileChange, 0, len(files))
	for _, f := range files {
		if config.MatchesIgnorePrefix(f.Filename, cfg.Policies.IgnorePaths) {
			continue
		}
		candidates = append(candidates, domain.FileChange{
			Path:      f.Filename,
			Status:    f.Status,
			Additions: f.Additions,
			Deletions: f.Deletions,
			Patch:     f.Patch,
		})
	}

	shaped := payload.Shape(candidates, payload.Limits{
		MaxFiles:             cfg.Review.MaxFiles,
		MaxPatchCharsPerFile: cfg.Review.MaxPatchCharsPerFile,
		MaxPatchCharsTotal:   cfg.Review.MaxPatchCharsTotal,
	})
	d.logger.Info("shaped review payload", httpx.Fields{
		"files":            len(shaped.Files),
		"total_chars":      shaped.TotalChars,
		"estimated_tokens": shaped.EstimatedTokens,
	})
	if len(shaped.Files) == 0 {
		reason := "no text patches available to review"
		d.logger.Info("skipping review", httpx.Fields{"reason": reason})
		return &Result{Outcome: OutcomeSkipped, Reason: reason}, nil
	}

	focus, maxComments, minSeverity := d.applyOverrides(event.CommentBody())

	request := domain.ReviewRequest{
		Repo:       owner + "/" + repo,
		PullNumber: number,
		PR: domain.PRMetadata{
			Title:   pr.Title,
			Body:    pr.Body,
			URL:     pr.HTMLURL,
			HeadSHA: pr.Head.SHA,
		},
		Focus: focus,
		Mode:  strings.ToLower(d.settings.Mode),
		Config: domain.ReviewConstraints{
			MinConfidence:        cfg.Review.MinConfidence,
			MinSeverityForInline: cfg.Review.MinSeverityForInline,
			MaxInlineComments:    cfg.Review.MaxInlineComments,
		},
		Files: shaped.Files,
	}

	resp, err := d.reviewer.Submit(ctx, request)
	if err != nil {
		return nil, err
	}

	d.writeReport(resp)

	summary := markdown.RenderSummary(resp.Review, resp.GeneratedAt)

	if d.settings.DryRun {
		d.logger.Info("dry run, not posting to PR", nil)
		return &Result{Outcome: OutcomeDryRun, Summary: summary, Review: &resp.Review}, nil
	}

	result := &Result{Outcome: OutcomeReviewed, Summary: summary, Review: &resp.Review}

	var group errgroup.Group

	if d.settings.PostSummary {
		group.Go(func() error {
			up, err := d.poster.UpsertSummary(ctx, owner, repo, number, summary)
			if err != nil {
				return err
			}
			d.logger.Info("summary comment "+string(up.Action), httpx.Fields{"id": up.ID})
			return nil
		})
	}

	if d.settings.CreateCheckRun {
		group.Go(func() error {
			conclusion := "success"
			if resp.Review.Overall.Decision == domain.DecisionRequestChanges {
				conclusion = "failure"
			}
			input := github.CheckRunInput{
				Name:       checkRunName,
				HeadSHA:    pr.Head.SHA,
				Title:      checkRunName,
				Summary:    truncate(summary, checkSummaryLimit),
				Conclusion: conclusion,
			}
			if err := d.host.CreateCheckRun(ctx, owner, repo, input); err != nil {
				// Check runs need elevated token scopes; treat failure
				// as advisory.
				d.logger.Warn("check run creation failed", httpx.Fields{"err": err.Error()})
			}
			return nil
		})
	}

	if d.settings.PostInline && d.settings.PostSummary {
		group.Go(func() error {
			result.PostedInline = d.poster.PostFindings(ctx, owner, repo, number, resp.Review.Comments, publish.InlinePolicy{
				MinConfidence: cfg.Review.MinConfidence,
				MinSeverity:   minSeverity,
				MaxComments:   maxComments,
			})
			d.logger.Info("posted inline comments", httpx.Fields{"count": result.PostedInline})
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// applyOverrides folds a /review command from the triggering comment
// over the configured focus, comment cap, and severity floor.
func (d *Driver) applyOverrides(commentBody string) (*string, int, domain.Severity) {
	focus := d.settings.Focus
	maxComments := d.settings.MaxComments
	minSeverity := domain.NormalizeSeverity(d.settings.MinSeverity)

	if overrides, found := command.Parse(commentBody); found {
		if overrides.Focus != nil {
			focus = *overrides.Focus
		}
		if overrides.MaxComments != nil {
			maxComments = *overrides.MaxComments
		}
		if overrides.MinSeverity != nil {
			minSeverity = *overrides.MinSeverity
		}
	}

	var focusPtr *string
	if focus != "" {
		focusPtr = &focus
	}
	return focusPtr, maxComments, minSeverity
}

// writeReport drops the raw service response into the workspace as a
// debugging artifact. Best effort only.
func (d *Driver) writeReport(resp *reviewapi.Response) {
	if d.settings.Workspace == "" {
		return
	}
	raw, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(d.settings.Workspace, reportArtifactName)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		d.logger.Warn("could not write report artifact", httpx.Fields{"path": path, "err": err.Error()})
		return
	}
	d.logger.Info("wrote report artifact", httpx.Fields{"path": path})
}

func splitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("repository %q is not in owner/name form", repository)
	}
	return owner, repo, nil
}

// truncate cuts s at limit bytes, backing the cut off to a rune
// boundary so the result stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
