// Package oidc verifies the identity tokens presented to the review
// service and enforces the repository allow-list.
package oidc

import (
	"context"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

const bearerPrefix = "Bearer "

// Identity is the caller identity asserted by a verified token.
type Identity struct {
	// Repository is the "owner/name" claim.
	Repository string

	// Actor is the user that triggered the workflow.
	Actor string

	// Workflow names the calling workflow.
	Workflow string

	// JobWorkflowRef pins the exact workflow file and ref.
	JobWorkflowRef string
}

// Verifier validates bearer tokens against the identity provider's
// published key set and the expected issuer and audience.
type Verifier struct {
	issuer   string
	audience string
	keyfunc  jwt.Keyfunc
}

// NewVerifier builds a verifier that fetches (and refreshes) the provider's
// JWKS from the given URL.
func NewVerifier(ctx context.Context, issuer, jwksURL, audience string) (*Verifier, error) {
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks %s: %w", jwksURL, err)
	}
	return NewVerifierWithKeyfunc(issuer, audience, jwks.Keyfunc), nil
}

// NewVerifierWithKeyfunc builds a verifier around an explicit key lookup.
// Tests use this to sign tokens with local keys.
func NewVerifierWithKeyfunc(issuer, audience string, kf jwt.Keyfunc) *Verifier {
	return &Verifier{issuer: issuer, audience: audience, keyfunc: kf}
}

// Verify checks an Authorization header value and returns the asserted
// identity. Failure modes are distinct: a missing or non-bearer header is
// Unauthenticated, a token failing signature/issuer/audience checks is
// InvalidToken, and a verified token without a repository claim is
// MalformedClaims.
func (v *Verifier) Verify(authorization string) (*Identity, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, domain.NewError(domain.ErrTypeUnauthenticated,
			"missing Authorization: Bearer <token> header")
	}
	raw := strings.TrimSpace(authorization[len(bearerPrefix):])
	if raw == "" {
		return nil, domain.NewError(domain.ErrTypeUnauthenticated, "empty bearer token")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, domain.NewError(domain.ErrTypeInvalidToken, "token verification failed: %v", err)
	}

	repo, _ := claims["repository"].(string)
	if repo == "" {
		return nil, domain.NewError(domain.ErrTypeMalformedClaims, "token missing repository claim")
	}

	actor, _ := claims["actor"].(string)
	workflow, _ := claims["workflow"].(string)
	jobRef, _ := claims["job_workflow_ref"].(string)

	return &Identity{
		Repository:     repo,
		Actor:          actor,
		Workflow:       workflow,
		JobWorkflowRef: jobRef,
	}, nil
}
