package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Severity
	}{
		{
			name:     "known severity passes through",
			input:    "high",
			expected: SeverityHigh,
		},
		{
			name:     "uppercase is normalized",
			input:    "CRITICAL",
			expected: SeverityCritical,
		},
		{
			name:     "surrounding whitespace is trimmed",
			input:    "  nit \n",
			expected: SeverityNit,
		},
		{
			name:     "unknown maps to medium",
			input:    "catastrophic",
			expected: SeverityMedium,
		},
		{
			name:     "empty maps to medium",
			input:    "",
			expected: SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSeverity(tt.input))
		})
	}
}

func TestSeverityAtLeast_TotalOrder(t *testing.T) {
	ordered := []Severity{SeverityNit, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

	for i, a := range ordered {
		for j, b := range ordered {
			got := a.AtLeast(b)
			assert.Equal(t, i >= j, got, "%s.AtLeast(%s)", a, b)
		}
	}
}

func TestSeverityAtLeast_Reflexive(t *testing.T) {
	for _, s := range []Severity{SeverityNit, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		assert.True(t, s.AtLeast(s))
	}
}

func TestSeverityAtLeast_UnknownRanksAsMedium(t *testing.T) {
	unknown := Severity("bogus")

	assert.True(t, unknown.AtLeast(SeverityMedium))
	assert.True(t, unknown.AtLeast(SeverityLow))
	assert.False(t, unknown.AtLeast(SeverityHigh))
}
