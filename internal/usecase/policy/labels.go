// Package policy decides whether a pull request should be reviewed at
// all, based on the labels it carries and the repository's configured
// skip and required label sets.
package policy

import (
	"fmt"
	"strings"
)

// LabelRules are the label-based gates from the repository config.
type LabelRules struct {
	SkipIfPresent    []string // Any match skips the review
	RunOnlyIfPresent []string // Non-empty means at least one must match
}

// Decision reports whether the review should proceed.
type Decision struct {
	Skip   bool
	Reason string
}

// CheckLabels applies the skip and required label rules to the labels on
// a pull request. Label comparison is case-insensitive. A skip label
// wins over a required label when both match.
func CheckLabels(prLabels []string, rules LabelRules) Decision {
	have := make(map[string]bool, len(prLabels))
	for _, l := range prLabels {
		have[strings.ToLower(strings.TrimSpace(l))] = true
	}

	for _, l := range rules.SkipIfPresent {
		if have[strings.ToLower(strings.TrimSpace(l))] {
			return Decision{Skip: true, Reason: fmt.Sprintf("skip label %q present", l)}
		}
	}

	if len(rules.RunOnlyIfPresent) > 0 {
		for _, l := range rules.RunOnlyIfPresent {
			if have[strings.ToLower(strings.TrimSpace(l))] {
				return Decision{}
			}
		}
		return Decision{Skip: true, Reason: fmt.Sprintf("none of the required labels %v present", rules.RunOnlyIfPresent)}
	}

	return Decision{}
}
