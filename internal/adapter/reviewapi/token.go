package reviewapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

// TokenSource mints short-lived, audience-scoped identity tokens.
type TokenSource interface {
	Token(ctx context.Context, audience string) (string, error)
}

// ActionsTokenSource obtains OIDC tokens from the GitHub Actions runtime.
// It requires the workflow to grant `permissions: id-token: write`, which
// exposes the request URL and request token in the environment.
type ActionsTokenSource struct {
	httpClient *http.Client

	// getenv is swappable for tests.
	getenv func(string) string
}

// NewActionsTokenSource creates a token source backed by the Actions runtime.
func NewActionsTokenSource() *ActionsTokenSource {
	return &ActionsTokenSource{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		getenv:     os.Getenv,
	}
}

// Token fetches a fresh identity token scoped to the audience.
func (s *ActionsTokenSource) Token(ctx context.Context, audience string) (string, error) {
	requestURL := s.getenv("ACTIONS_ID_TOKEN_REQUEST_URL")
	requestToken := s.getenv("ACTIONS_ID_TOKEN_REQUEST_TOKEN")
	if requestURL == "" || requestToken == "" {
		return "", domain.NewError(domain.ErrTypeIdentityUnavailable,
			"identity token endpoint not available; ensure the workflow has permissions: id-token: write")
	}

	sep := "?"
	if strings.Contains(requestURL, "?") {
		sep = "&"
	}
	full := fmt.Sprintf("%s%saudience=%s", requestURL, sep, url.QueryEscape(audience))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return "", domain.NewError(domain.ErrTypeIdentityUnavailable, "build token request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+requestToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", domain.NewError(domain.ErrTypeIdentityUnavailable, "fetch identity token: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", domain.NewRemoteError(domain.ErrTypeIdentityUnavailable,
			resp.StatusCode, string(body), "identity token request failed")
	}

	var payload struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Value == "" {
		return "", domain.NewError(domain.ErrTypeIdentityUnavailable,
			"identity token response missing value")
	}
	return payload.Value, nil
}
