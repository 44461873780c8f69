package domain

import "strings"

// Severity classifies how serious a finding is. Severities form a total
// order used when deciding whether a finding qualifies for inline posting.
type Severity string

const (
	SeverityNit      Severity = "nit"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityOrder defines the total order nit < low < medium < high < critical.
var severityOrder = []Severity{
	SeverityNit,
	SeverityLow,
	SeverityMedium,
	SeverityHigh,
	SeverityCritical,
}

// NormalizeSeverity maps an arbitrary string onto a known severity.
// Matching is case-insensitive and ignores surrounding whitespace.
// Unknown or empty input maps to SeverityMedium.
func NormalizeSeverity(s string) Severity {
	v := Severity(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range severityOrder {
		if v == known {
			return known
		}
	}
	return SeverityMedium
}

// rank returns the position of s in the severity order.
// Inputs are normalized first, so an unknown severity ranks as medium.
func rank(s Severity) int {
	normalized := NormalizeSeverity(string(s))
	for i, known := range severityOrder {
		if normalized == known {
			return i
		}
	}
	return 2 // unreachable: NormalizeSeverity always returns a known value
}

// AtLeast reports whether s is at or above other in the severity order.
func (s Severity) AtLeast(other Severity) bool {
	return rank(s) >= rank(other)
}
