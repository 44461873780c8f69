// Package publish maps a rendered review onto pull request comment
// operations: one idempotently upserted summary comment and a capped,
// policy-gated set of inline finding comments.
package publish

import (
	"context"
	"strings"

	"github.com/reviewbotdev/reviewbot/internal/adapter/github"
	"github.com/reviewbotdev/reviewbot/internal/adapter/httpx"
	"github.com/reviewbotdev/reviewbot/internal/adapter/output/markdown"
	"github.com/reviewbotdev/reviewbot/internal/domain"
)

// Commenter is the slice of the source-control API publishing needs.
type Commenter interface {
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]github.IssueComment, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*github.IssueComment, error)
	UpdateIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error
	CreateReviewComment(ctx context.Context, owner, repo string, number int, comment github.ReviewCommentInput) error
}

// Action says whether an upsert reused an existing comment.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// UpsertResult identifies the summary comment after an upsert.
type UpsertResult struct {
	Action Action
	ID     int64
}

// InlinePolicy gates which findings become inline comments.
type InlinePolicy struct {
	MinConfidence float64
	MinSeverity   domain.Severity
	MaxComments   int
}

// Publisher posts review output to a pull request.
type Publisher struct {
	client Commenter
	logger *httpx.Logger
}

// NewPublisher creates a publisher over the given comment API.
func NewPublisher(client Commenter, logger *httpx.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// UpsertSummary replaces the existing summary comment on the PR, found
// by scanning listed comments newest first for the sentinel marker, or
// creates a fresh one when no prior summary exists. Reruns therefore
// leave at most one live summary comment on the PR.
func (p *Publisher) UpsertSummary(ctx context.Context, owner, repo string, number int, body string) (UpsertResult, error) {
	comments, err := p.client.ListIssueComments(ctx, owner, repo, number)
	if err != nil {
		return UpsertResult{}, err
	}

	for i := len(comments) - 1; i >= 0; i-- {
		if strings.Contains(comments[i].Body, markdown.SummaryMarker) {
			if err := p.client.UpdateIssueComment(ctx, owner, repo, comments[i].ID, body); err != nil {
				return UpsertResult{}, err
			}
			return UpsertResult{Action: ActionUpdated, ID: comments[i].ID}, nil
		}
	}

	created, err := p.client.CreateIssueComment(ctx, owner, repo, number, body)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Action: ActionCreated, ID: created.ID}, nil
}

// PostFindings posts inline comments for qualifying findings, in the
// order received. A finding with no path or no target line is skipped
// without consuming the cap. Findings below the confidence or severity
// floor are skipped the same way; a finding with no confidence counts
// as confidence zero. Posting stops once MaxComments comments have
// been created; a cap of zero posts nothing, and a negative cap means
// no limit. An individual post failure is logged and does not stop the
// remaining findings.
func (p *Publisher) PostFindings(ctx context.Context, owner, repo string, number int, findings []domain.FindingComment, policy InlinePolicy) int {
	posted := 0
	for _, f := range findings {
		if policy.MaxComments >= 0 && posted >= policy.MaxComments {
			break
		}
		if f.Path == "" || f.Line <= 0 {
			continue
		}
		confidence := 0.0
		if f.Confidence != nil {
			confidence = *f.Confidence
		}
		if confidence < policy.MinConfidence {
			continue
		}
		if !domain.NormalizeSeverity(f.Severity).AtLeast(policy.MinSeverity) {
			continue
		}

		input := github.ReviewCommentInput{
			Body:      markdown.RenderFinding(f),
			Path:      f.Path,
			Side:      f.Side,
			Line:      f.Line,
			StartLine: f.StartLine,
			StartSide: f.StartSide,
		}
		if err := p.client.CreateReviewComment(ctx, owner, repo, number, input); err != nil {
			p.logger.Warn("inline comment failed", httpx.Fields{
				"path": f.Path,
				"line": f.Line,
				"err":  err.Error(),
			})
			continue
		}
		posted++
	}
	return posted
}
