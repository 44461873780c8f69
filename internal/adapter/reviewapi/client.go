// Package reviewapi is the action-side client for the review service.
// It mints a fresh identity token per submission and surfaces transport,
// protocol, and shape failures distinctly.
package reviewapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

// Response is the review service's success envelope.
type Response struct {
	OK             bool                `json:"ok"`
	Review         domain.ReviewResult `json:"review"`
	Meta           map[string]any      `json:"meta"`
	GeneratedAt    string              `json:"generated_at"`
	Repo           string              `json:"repo"`
	Actor          string              `json:"actor"`
	Workflow       string              `json:"workflow"`
	QuotaRemaining *int                `json:"quota_remaining"`
}

// Client submits shaped review requests to the review service.
type Client struct {
	endpoint   string
	audience   string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a review service client.
func NewClient(endpoint, audience string, tokens TokenSource) *Client {
	return &Client{
		endpoint:   endpoint,
		audience:   audience,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// Submit sends the request and parses the structured response. A non-2xx
// status becomes a RemoteReviewError carrying the status and a body
// excerpt; a success body that is not JSON, or that lacks the load-bearing
// top-level review/meta keys, becomes a MalformedResponse.
func (c *Client) Submit(ctx context.Context, request domain.ReviewRequest) (*Response, error) {
	token, err := c.tokens.Token(ctx, c.audience)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal review request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build review request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.ErrTypeRemoteReview, "review request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewError(domain.ErrTypeRemoteReview, "read review response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewRemoteError(domain.ErrTypeRemoteReview,
			resp.StatusCode, string(body), "review service returned non-success status")
	}

	// Probe the envelope before decoding: review and meta are
	// load-bearing downstream and must not be silently defaulted.
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, domain.NewRemoteError(domain.ErrTypeMalformedResponse,
			resp.StatusCode, string(body), "review service returned non-JSON body")
	}
	if _, ok := envelope["review"]; !ok {
		return nil, domain.NewError(domain.ErrTypeMalformedResponse, "response missing review object")
	}
	if _, ok := envelope["meta"]; !ok {
		return nil, domain.NewError(domain.ErrTypeMalformedResponse, "response missing meta object")
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, domain.NewError(domain.ErrTypeMalformedResponse, "decode review response: %v", err)
	}
	return &out, nil
}
