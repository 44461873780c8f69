// Package openai generates structured code reviews through the OpenAI
// Responses API with a strict JSON schema output format.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultTimeout = 120 * time.Second

	// Low temperature keeps review output stable across reruns.
	reviewTemperature = 0.2
)

// GenerateInput is everything the prompt is built from.
type GenerateInput struct {
	Repo  string
	PR    domain.PRMetadata
	Files []domain.FileChange
	Focus *string
	Mode  string
}

// Client calls the model service.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an OpenAI-backed review generator.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// Generate asks the model for a review of the given diff payload and
// returns the schema-validated result.
func (c *Client) Generate(ctx context.Context, input GenerateInput) (domain.ReviewResult, error) {
	system, user := buildPrompt(input)

	reqBody := responsesRequest{
		Model: c.model,
		Input: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Text: textOptions{
			Format: outputFormat{
				Type:   "json_schema",
				Name:   "reviewbot_output",
				Strict: true,
				Schema: domain.ReviewSchema,
			},
		},
		Temperature: reviewTemperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return domain.ReviewResult{}, fmt.Errorf("marshal model request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", bytes.NewReader(payload))
	if err != nil {
		return domain.ReviewResult{}, fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ReviewResult{}, domain.NewError(domain.ErrTypeRemoteReview, "model request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ReviewResult{}, domain.NewError(domain.ErrTypeRemoteReview, "read model response: %v", err)
	}

	var reply responsesReply
	decodeErr := json.Unmarshal(body, &reply)

	if resp.StatusCode != http.StatusOK {
		detail := string(body)
		if decodeErr == nil && reply.Error != nil && reply.Error.Message != "" {
			detail = reply.Error.Message
		}
		return domain.ReviewResult{}, domain.NewRemoteError(domain.ErrTypeRemoteReview,
			resp.StatusCode, detail, "model service returned non-success status")
	}
	if decodeErr != nil {
		return domain.ReviewResult{}, domain.NewError(domain.ErrTypeMalformedResponse,
			"model response is not JSON: %v", decodeErr)
	}

	outText := extractOutputText(reply)
	if outText == "" {
		return domain.ReviewResult{}, domain.NewError(domain.ErrTypeMalformedResponse,
			"model response missing output text")
	}

	// Validate against the same schema the request advertised before
	// committing to the typed result.
	var decoded any
	if err := json.Unmarshal([]byte(outText), &decoded); err != nil {
		return domain.ReviewResult{}, domain.NewError(domain.ErrTypeMalformedResponse,
			"structured output is not JSON: %v", err)
	}
	if err := domain.ReviewSchema.Validate(decoded); err != nil {
		return domain.ReviewResult{}, domain.NewError(domain.ErrTypeMalformedResponse,
			"structured output violates schema: %v", err)
	}

	var result domain.ReviewResult
	if err := json.Unmarshal([]byte(outText), &result); err != nil {
		return domain.ReviewResult{}, domain.NewError(domain.ErrTypeMalformedResponse,
			"decode structured output: %v", err)
	}
	return result, nil
}

// extractOutputText joins the output_text parts of message items.
func extractOutputText(reply responsesReply) string {
	var parts []string
	for _, item := range reply.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" && part.Text != "" {
				parts = append(parts, part.Text)
			}
		}
	}
	return strings.Join(parts, "")
}

func buildPrompt(input GenerateInput) (system, user string) {
	system = `You are ReviewBot, an expert code reviewer.
Rules:
- Only comment on what is present in the diff.
- If the diff is tiny (e.g. comment-only), still provide useful repo-agnostic suggestions (tests/checks, docs consistency) BUT do not invent bugs.
- Prioritize correctness, security, and maintainability.
- Provide actionable suggestions with clear reasoning.
- Inline comments MUST reference a file path and an added-line number (RIGHT side) within the diff. If unsure, omit inline comment.
- meta must be an empty object {}.`

	focusLine := "Focus area: general"
	if input.Focus != nil && *input.Focus != "" {
		focusLine = "Focus area: " + *input.Focus
	}
	modeLine := "Mode: safe (do not assume access to secrets; be cautious about suggestions that require running untrusted code)."
	if input.Mode == domain.ModeTrusted {
		modeLine = "Mode: trusted (assume internal repo)."
	}

	blocks := make([]string, 0, len(input.Files))
	for _, f := range input.Files {
		blocks = append(blocks, fmt.Sprintf("FILE: %s\nSTATUS: %s (+%d/-%d)\nPATCH:\n%s",
			f.Path, f.Status, f.Additions, f.Deletions, f.Patch))
	}

	prBody := input.PR.Body
	if prBody == "" {
		prBody = "(empty)"
	}

	user = fmt.Sprintf(`Repo: %s
PR title: %s
PR body: %s
%s
%s

DIFFS:
%s

Now produce the review JSON matching the schema.`,
		input.Repo, input.PR.Title, prBody, focusLine, modeLine,
		strings.Join(blocks, "\n\n---\n\n"))

	return system, user
}
