package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validReviewJSON is a minimal document satisfying every required field
// of the review schema.
const validReviewJSON = `{
	"overall": {
		"risk": "medium",
		"decision": "comment",
		"summary": "Looks mostly fine.",
		"test_suggestions": ["add a regression test"],
		"positives": [],
		"caveats": []
	},
	"highlights": ["watch the error path"],
	"file_summaries": [
		{"path": "main.go", "risk": "low", "summary": "wiring only"}
	],
	"comments": [
		{
			"path": "main.go",
			"side": "RIGHT",
			"line": 12,
			"start_line": null,
			"start_side": null,
			"category": "bug",
			"severity": "high",
			"confidence": 0.9,
			"title": "Nil deref",
			"message": "cfg may be nil here",
			"suggestion": null
		}
	],
	"meta": {}
}`

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestReviewSchema_AcceptsValidDocument(t *testing.T) {
	assert.NoError(t, ReviewSchema.Validate(decode(t, validReviewJSON)))
}

func TestReviewSchema_RejectsAdditionalProperties(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validReviewJSON), &doc))
	doc["surprise"] = true

	err := ReviewSchema.Validate(doc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected property")
}

func TestReviewSchema_RejectsMetaWithContent(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validReviewJSON), &doc))
	doc["meta"] = map[string]any{"model": "gpt-4o-mini"}

	assert.Error(t, ReviewSchema.Validate(doc))
}

func TestReviewSchema_RejectsMissingRequired(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validReviewJSON), &doc))
	delete(doc, "highlights")

	err := ReviewSchema.Validate(doc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required property "highlights"`)
}

func TestReviewSchema_RejectsBadEnumAndRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{
			name: "unknown risk",
			mutate: func(doc map[string]any) {
				doc["overall"].(map[string]any)["risk"] = "severe"
			},
		},
		{
			name: "confidence above 1",
			mutate: func(doc map[string]any) {
				comment := doc["comments"].([]any)[0].(map[string]any)
				comment["confidence"] = 1.5
			},
		},
		{
			name: "line zero",
			mutate: func(doc map[string]any) {
				comment := doc["comments"].([]any)[0].(map[string]any)
				comment["line"] = 0.0
			},
		},
		{
			name: "fractional line",
			mutate: func(doc map[string]any) {
				comment := doc["comments"].([]any)[0].(map[string]any)
				comment["line"] = 3.5
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]any
			require.NoError(t, json.Unmarshal([]byte(validReviewJSON), &doc))
			tt.mutate(doc)
			assert.Error(t, ReviewSchema.Validate(doc))
		})
	}
}

func TestReviewSchema_NullableFields(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validReviewJSON), &doc))
	comment := doc["comments"].([]any)[0].(map[string]any)
	comment["start_line"] = 10.0
	comment["start_side"] = "RIGHT"
	comment["suggestion"] = "use require.NoError"

	assert.NoError(t, ReviewSchema.Validate(doc))
}

func TestSchemaMarshal_ObjectsAreClosed(t *testing.T) {
	raw, err := json.Marshal(ReviewSchema)
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, false, schema["additionalProperties"])
	assert.ElementsMatch(t,
		[]any{"overall", "highlights", "file_summaries", "comments", "meta"},
		schema["required"])

	// meta must serialize as a closed empty object.
	meta := schema["properties"].(map[string]any)["meta"].(map[string]any)
	assert.Equal(t, false, meta["additionalProperties"])
	assert.Empty(t, meta["properties"])
	assert.Empty(t, meta["required"])
}

func TestSchemaMarshal_RoundTripValidatesItself(t *testing.T) {
	// A document built from the Go types must satisfy the schema the
	// request advertises: both directions share one definition.
	startLine := 3
	side := SideRight
	conf := 0.7
	result := ReviewResult{
		Overall: Overall{
			Risk:            RiskLow,
			Decision:        DecisionApprove,
			Summary:         "ok",
			TestSuggestions: []string{},
			Positives:       []string{"tidy"},
			Caveats:         []string{},
		},
		Highlights:    []string{},
		FileSummaries: []FileSummary{},
		Comments: []FindingComment{
			{
				Path:       "a.go",
				Side:       SideRight,
				Line:       5,
				StartLine:  &startLine,
				StartSide:  &side,
				Category:   "style",
				Severity:   "nit",
				Confidence: &conf,
				Title:      "t",
				Message:    "m",
			},
		},
		Meta: map[string]any{},
	}

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NoError(t, ReviewSchema.Validate(decoded))
}
