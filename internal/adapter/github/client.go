// Package github is an HTTP client for the subset of the GitHub REST API
// the review pipeline depends on: PR metadata, changed files, discussion
// comments, inline review comments, and check runs.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reviewbotdev/reviewbot/internal/adapter/httpx"
	"github.com/reviewbotdev/reviewbot/internal/domain"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second

	perPage = 100

	// Pagination safety limits, to avoid unbounded fetches on
	// pathological PRs.
	maxFilePages    = 20
	maxCommentPages = 3
)

// Client talks to the GitHub REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  httpx.RetryConfig
}

// NewClient creates a client authenticated with the given token.
// The token is typically GITHUB_TOKEN from an Actions run.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  httpx.DefaultRetryConfig(),
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetMaxRetries sets the maximum number of transport-level retry attempts.
func (c *Client) SetMaxRetries(maxRetries int) {
	c.retryConf.MaxRetries = maxRetries
}

// SetInitialBackoff sets the initial backoff duration for retries.
func (c *Client) SetInitialBackoff(backoff time.Duration) {
	c.retryConf.InitialBackoff = backoff
}

// GetPullRequest fetches PR metadata by number.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// ListPullFiles lists the changed files of a PR, following pagination up
// to the safety limit.
func (c *Client) ListPullFiles(ctx context.Context, owner, repo string, number int) ([]PullFile, error) {
	var out []PullFile
	for page := 1; page <= maxFilePages; page++ {
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			owner, repo, number, perPage, page)
		var batch []PullFile
		if err := c.do(ctx, http.MethodGet, path, nil, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return out, nil
}

// ListIssueComments lists discussion comments on the PR thread, bounded to
// a few pages; the summary sentinel is searched newest-first downstream.
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]IssueComment, error) {
	var out []IssueComment
	for page := 1; page <= maxCommentPages; page++ {
		path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments?per_page=%d&page=%d",
			owner, repo, number, perPage, page)
		var batch []IssueComment
		if err := c.do(ctx, http.MethodGet, path, nil, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return out, nil
}

// CreateIssueComment posts a new discussion comment on the PR thread.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*IssueComment, error) {
	var created IssueComment
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"body": body}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateIssueComment replaces the body of an existing discussion comment.
func (c *Client) UpdateIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/comments/%d", owner, repo, commentID)
	return c.do(ctx, http.MethodPatch, path, map[string]string{"body": body}, nil)
}

// CreateReviewComment posts an inline comment anchored to a diff location.
func (c *Client) CreateReviewComment(ctx context.Context, owner, repo string, number int, comment ReviewCommentInput) error {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments", owner, repo, number)
	return c.do(ctx, http.MethodPost, path, comment, nil)
}

// CreateCheckRun creates a completed check run on the head commit.
func (c *Client) CreateCheckRun(ctx context.Context, owner, repo string, input CheckRunInput) error {
	path := fmt.Sprintf("/repos/%s/%s/check-runs", owner, repo)
	body := map[string]any{
		"name":       input.Name,
		"head_sha":   input.HeadSHA,
		"status":     "completed",
		"conclusion": input.Conclusion,
		"output": map[string]string{
			"title":   input.Title,
			"summary": input.Summary,
		},
	}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// do executes one API call with bounded transport-level retry. Network
// failures and 5xx responses are retried; everything else surfaces
// immediately as a source-control API error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var respBody []byte
	err := httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return domain.NewError(domain.ErrTypeSourceControlAPI, "build request %s %s: %v", method, path, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return httpx.Transient(domain.NewError(domain.ErrTypeSourceControlAPI, "%s %s: %v", method, path, err))
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return httpx.Transient(domain.NewError(domain.ErrTypeSourceControlAPI, "%s %s: read response: %v", method, path, err))
		}

		if resp.StatusCode >= 400 {
			apiErr := domain.NewRemoteError(domain.ErrTypeSourceControlAPI,
				resp.StatusCode, string(respBody), "%s %s failed", method, path)
			if resp.StatusCode >= 500 {
				return httpx.Transient(apiErr)
			}
			return apiErr
		}
		return nil
	}, c.retryConf)
	if err != nil {
		return err
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return domain.NewError(domain.ErrTypeSourceControlAPI, "%s %s: parse response: %v", method, path, err)
		}
	}
	return nil
}
