// Package server hosts the review API: a health probe and a /review
// endpoint that authenticates workflow identity tokens, enforces the
// repository allow-list and daily quota, and delegates review
// generation to the model service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/reviewbotdev/reviewbot/internal/adapter/httpx"
	"github.com/reviewbotdev/reviewbot/internal/adapter/llm/openai"
	"github.com/reviewbotdev/reviewbot/internal/adapter/oidc"
	"github.com/reviewbotdev/reviewbot/internal/domain"
	"github.com/reviewbotdev/reviewbot/internal/usecase/quota"
)

const maxRequestBody = 2 << 20 // 2 MiB

// IdentityVerifier authenticates a presented bearer token.
type IdentityVerifier interface {
	Verify(authorization string) (*oidc.Identity, error)
}

// Generator produces a review for a shaped request.
type Generator interface {
	Generate(ctx context.Context, input openai.GenerateInput) (domain.ReviewResult, error)
}

// Server handles review API requests.
type Server struct {
	verifier  IdentityVerifier
	allowlist oidc.Allowlist
	quota     *quota.Gate
	generator Generator
	logger    *httpx.Logger
	now       func() time.Time
}

// New wires a server from its collaborators.
func New(verifier IdentityVerifier, allowlist oidc.Allowlist, gate *quota.Gate, generator Generator, logger *httpx.Logger) *Server {
	return &Server{
		verifier:  verifier,
		allowlist: allowlist,
		quota:     gate,
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// Handler builds the HTTP routing for the server, with per-client rate
// limiting applied to every route.
func (s *Server) Handler(requestsPerMinute int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /review", s.handleReview)
	return RateLimit(requestsPerMinute)(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// reviewEnvelope is the success response shape. Meta stays an empty
// object to match the strict output schema.
type reviewEnvelope struct {
	OK             bool                `json:"ok"`
	Review         domain.ReviewResult `json:"review"`
	Meta           map[string]any      `json:"meta"`
	GeneratedAt    string              `json:"generated_at"`
	Repo           string              `json:"repo"`
	Actor          string              `json:"actor"`
	Workflow       string              `json:"workflow"`
	QuotaRemaining int                 `json:"quota_remaining"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	identity, err := s.verifier.Verify(r.Header.Get("Authorization"))
	if err != nil {
		s.logger.Warn("identity rejected", httpx.Fields{"err": err.Error()})
		writeError(w, http.StatusUnauthorized, errorCode(err), nil)
		return
	}

	if !s.allowlist.IsAllowed(identity.Repository) {
		writeError(w, http.StatusForbidden, "repo_not_allowed", map[string]any{
			"repo": identity.Repository,
			"hint": "Ask the maintainer to add your repo to ALLOW_REPOS or your org to ALLOW_ORGS.",
		})
		return
	}

	decision := s.quota.CheckAndConsume(identity.Repository)
	if !decision.Allowed {
		writeError(w, http.StatusTooManyRequests, "quota_exceeded", map[string]any{
			"repo":  identity.Repository,
			"limit": decision.Limit,
		})
		return
	}

	var request domain.ReviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", map[string]any{"detail": err.Error()})
		return
	}
	if len(request.Files) == 0 {
		writeError(w, http.StatusBadRequest, "no_files", nil)
		return
	}

	mode := request.Mode
	if mode == "" {
		mode = domain.ModeSafe
	}
	review, err := s.generator.Generate(r.Context(), openai.GenerateInput{
		Repo:  identity.Repository,
		PR:    request.PR,
		Files: request.Files,
		Focus: request.Focus,
		Mode:  mode,
	})
	if err != nil {
		s.logger.Error("review generation failed", httpx.Fields{
			"repo": identity.Repository,
			"err":  err.Error(),
		})
		writeError(w, http.StatusInternalServerError, errorCode(err), nil)
		return
	}

	writeJSON(w, http.StatusOK, reviewEnvelope{
		OK:             true,
		Review:         review,
		Meta:           map[string]any{},
		GeneratedAt:    s.now().UTC().Format(time.RFC3339),
		Repo:           identity.Repository,
		Actor:          identity.Actor,
		Workflow:       identity.Workflow,
		QuotaRemaining: decision.Remaining,
	})
}

// errorCode extracts the machine-readable code from a typed error.
func errorCode(err error) string {
	var typed *domain.Error
	if errors.As(err, &typed) {
		return typed.Type.String()
	}
	return "internal_error"
}

func writeError(w http.ResponseWriter, status int, code string, extra map[string]any) {
	body := map[string]any{"ok": false, "error": code}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
