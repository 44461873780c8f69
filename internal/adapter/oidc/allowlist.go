package oidc

import "strings"

// Allowlist decides which repositories may call the review service.
// Lists come from server configuration, not code.
type Allowlist struct {
	// AllowAll bypasses both lists entirely.
	AllowAll bool

	// Repos are explicitly allowed "owner/name" repositories.
	Repos []string

	// Orgs are organizations whose repositories are all allowed.
	// Matched case-insensitively against the owner segment.
	Orgs []string
}

// IsAllowed reports whether the repository may use the service.
func (a Allowlist) IsAllowed(repository string) bool {
	if a.AllowAll {
		return true
	}

	for _, allowed := range a.Repos {
		if repository == allowed {
			return true
		}
	}

	org := strings.ToLower(ownerOf(repository))
	if org == "" {
		return false
	}
	for _, allowed := range a.Orgs {
		if org == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

// ownerOf returns the substring before the first slash.
func ownerOf(repository string) string {
	if idx := strings.Index(repository, "/"); idx >= 0 {
		return repository[:idx]
	}
	return repository
}
