// Package command parses /review chat commands left as PR comments and
// turns their key=value arguments into review overrides.
package command

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

// reviewCommand matches "/review" followed by the rest of that line.
var (
	reviewCommand = regexp.MustCompile(`(?i)/(review)\b([^\n]*)`)
	argSeparator  = regexp.MustCompile(`[\s,]+`)
)

// Overrides are the per-invocation knobs a /review command may set.
// Nil fields were not mentioned in the command.
type Overrides struct {
	Focus       *string
	MaxComments *int
	MinSeverity *domain.Severity
}

// Parse extracts overrides from a comment body. It returns found=false
// when the body contains no /review command at all; a bare "/review"
// with no arguments returns found=true with empty overrides.
//
// Arguments are key=value pairs separated by spaces or commas, e.g.
// "/review focus=security max_comments=6". Unknown keys and values
// that fail to parse are ignored.
func Parse(body string) (Overrides, bool) {
	m := reviewCommand.FindStringSubmatch(body)
	if m == nil {
		return Overrides{}, false
	}

	var out Overrides
	args := strings.TrimSpace(m[2])
	if args == "" {
		return out, true
	}

	for _, part := range argSeparator.Split(args, -1) {
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok || value == "" {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "focus":
			focus := value
			out.Focus = &focus
		case "max_comments":
			if n, err := strconv.Atoi(value); err == nil && n >= 0 {
				out.MaxComments = &n
			}
		case "min_severity":
			sev := domain.NormalizeSeverity(value)
			out.MinSeverity = &sev
		}
	}
	return out, true
}
