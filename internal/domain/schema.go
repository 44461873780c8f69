package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Schema is a declarative description of a JSON shape. The same value is
// serialized into the strict JSON Schema attached to the model request and
// used to validate the decoded response, so both directions share one
// definition.
type Schema struct {
	Type       string
	Enum       []string
	Properties map[string]*Schema
	Required   []string
	Items      *Schema
	Minimum    *float64
	Maximum    *float64
	AnyOf      []*Schema
}

func floatPtr(f float64) *float64 { return &f }

// MarshalJSON emits standard JSON Schema. Objects always carry
// additionalProperties: false, which is what makes the shape closed.
func (s *Schema) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if len(s.AnyOf) > 0 {
		out["anyOf"] = s.AnyOf
		return json.Marshal(out)
	}
	out["type"] = s.Type
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Type == "object" {
		props := map[string]any{}
		for name, prop := range s.Properties {
			props[name] = prop
		}
		out["properties"] = props
		out["additionalProperties"] = false
		required := s.Required
		if required == nil {
			required = []string{}
		}
		out["required"] = required
	}
	if s.Items != nil {
		out["items"] = s.Items
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	return json.Marshal(out)
}

// Validate checks a decoded JSON value (as produced by encoding/json into
// any) against the schema. The first violation found is returned with a
// JSON-path style location.
func (s *Schema) Validate(value any) error {
	return s.validate(value, "$")
}

func (s *Schema) validate(value any, path string) error {
	if len(s.AnyOf) > 0 {
		for _, alt := range s.AnyOf {
			if alt.validate(value, path) == nil {
				return nil
			}
		}
		return fmt.Errorf("%s: no anyOf alternative matched", path)
	}

	switch s.Type {
	case "null":
		if value != nil {
			return fmt.Errorf("%s: expected null", path)
		}
	case "string":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: expected string, got %T", path, value)
		}
		if len(s.Enum) > 0 && !contains(s.Enum, str) {
			return fmt.Errorf("%s: %q not in enum %v", path, str, s.Enum)
		}
	case "number", "integer":
		num, ok := value.(float64)
		if !ok {
			return fmt.Errorf("%s: expected %s, got %T", path, s.Type, value)
		}
		if s.Type == "integer" && num != math.Trunc(num) {
			return fmt.Errorf("%s: expected integer, got %v", path, num)
		}
		if s.Minimum != nil && num < *s.Minimum {
			return fmt.Errorf("%s: %v below minimum %v", path, num, *s.Minimum)
		}
		if s.Maximum != nil && num > *s.Maximum {
			return fmt.Errorf("%s: %v above maximum %v", path, num, *s.Maximum)
		}
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %T", path, value)
		}
		if s.Items != nil {
			for i, item := range arr {
				if err := s.Items.validate(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %T", path, value)
		}
		for _, req := range s.Required {
			if _, present := obj[req]; !present {
				return fmt.Errorf("%s: missing required property %q", path, req)
			}
		}
		// Closed shape: reject keys the schema does not declare.
		// Sorted for a deterministic first error.
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			prop, declared := s.Properties[k]
			if !declared {
				return fmt.Errorf("%s: unexpected property %q", path, k)
			}
			if err := prop.validate(obj[k], path+"."+k); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%s: unknown schema type %q", path, s.Type)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

var riskEnum = []string{RiskLow, RiskMedium, RiskHigh, RiskCritical}

var sideEnum = []string{SideRight, SideLeft}

// FindingCategories are the known finding classifications.
var FindingCategories = []string{
	"bug", "security", "performance", "testing", "readability",
	"style", "design", "documentation", "other",
}

var severityEnum = []string{
	string(SeverityNit), string(SeverityLow), string(SeverityMedium),
	string(SeverityHigh), string(SeverityCritical),
}

func stringArray() *Schema {
	return &Schema{Type: "array", Items: &Schema{Type: "string"}}
}

func nullable(s *Schema) *Schema {
	return &Schema{AnyOf: []*Schema{s, {Type: "null"}}}
}

// ReviewSchema is the closed shape every review result must satisfy.
var ReviewSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"overall": {
			Type: "object",
			Properties: map[string]*Schema{
				"risk":             {Type: "string", Enum: riskEnum},
				"decision":         {Type: "string", Enum: []string{DecisionApprove, DecisionComment, DecisionRequestChanges}},
				"summary":          {Type: "string"},
				"test_suggestions": stringArray(),
				"positives":        stringArray(),
				"caveats":          stringArray(),
			},
			Required: []string{"risk", "decision", "summary", "test_suggestions", "positives", "caveats"},
		},
		"highlights": stringArray(),
		"file_summaries": {
			Type: "array",
			Items: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"path":    {Type: "string"},
					"risk":    {Type: "string", Enum: riskEnum},
					"summary": {Type: "string"},
				},
				Required: []string{"path", "risk", "summary"},
			},
		},
		"comments": {
			Type: "array",
			Items: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"path":       {Type: "string"},
					"side":       {Type: "string", Enum: sideEnum},
					"line":       {Type: "integer", Minimum: floatPtr(1)},
					"start_line": nullable(&Schema{Type: "integer", Minimum: floatPtr(1)}),
					"start_side": nullable(&Schema{Type: "string", Enum: sideEnum}),
					"category":   {Type: "string", Enum: FindingCategories},
					"severity":   {Type: "string", Enum: severityEnum},
					"confidence": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(1)},
					"title":      {Type: "string"},
					"message":    {Type: "string"},
					"suggestion": nullable(&Schema{Type: "string"}),
				},
				Required: []string{
					"path", "side", "line", "start_line", "start_side",
					"category", "severity", "confidence", "title", "message", "suggestion",
				},
			},
		},
		// meta is deliberately empty: the strict schema forbids the model
		// from inventing metadata fields.
		"meta": {
			Type:       "object",
			Properties: map[string]*Schema{},
			Required:   []string{},
		},
	},
	Required: []string{"overall", "highlights", "file_summaries", "comments", "meta"},
}
