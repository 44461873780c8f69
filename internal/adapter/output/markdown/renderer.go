// Package markdown renders structured review results into the summary
// document and inline comment bodies posted to the PR.
package markdown

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

// SummaryMarker is the sentinel embedded in every rendered summary.
// The comment reconciler greps for it to find a previous summary, so it
// must never change between releases.
const SummaryMarker = "<!-- reviewbot-summary -->"

// Section item caps keep the summary comment readable on large reviews.
const (
	maxListItems        = 10
	maxFileSummaryItems = 12
)

// RenderSummary produces the single summary document for a review.
// Section order is fixed: banner, summary, highlights, tests, file
// summaries, positives, caveats, timestamp. Empty sections are omitted.
func RenderSummary(review domain.ReviewResult, generatedAt string) string {
	caser := cases.Title(language.English)
	var b strings.Builder

	b.WriteString(SummaryMarker + "\n")
	b.WriteString("🤖 **ReviewBot**\n\n")

	risk := review.Overall.Risk
	if risk == "" {
		risk = "unknown"
	}
	decision := review.Overall.Decision
	if decision == "" {
		decision = domain.DecisionComment
	}
	fmt.Fprintf(&b, "Risk: %s **%s** | Decision: **%s**\n\n",
		riskIndicator(review.Overall.Risk), caser.String(risk), decision)

	if summary := strings.TrimSpace(review.Overall.Summary); summary != "" {
		b.WriteString(summary + "\n\n")
	}

	writeListSection(&b, "Top findings", review.Highlights, maxListItems)
	writeListSection(&b, "Suggested checks / tests", review.Overall.TestSuggestions, maxListItems)

	if len(review.FileSummaries) > 0 {
		b.WriteString("## File summaries\n")
		for i, fs := range review.FileSummaries {
			if i >= maxFileSummaryItems {
				break
			}
			fmt.Fprintf(&b, "- `%s` (**%s**): %s\n", fs.Path, fs.Risk, fs.Summary)
		}
		b.WriteString("\n")
	}

	writeListSection(&b, "What looks good", review.Overall.Positives, maxListItems)
	writeListSection(&b, "Caveats / questions", review.Overall.Caveats, maxListItems)

	if generatedAt != "" {
		fmt.Fprintf(&b, "_Generated at %s_\n", generatedAt)
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderFinding produces the body of one inline comment.
func RenderFinding(c domain.FindingComment) string {
	title := c.Title
	if title == "" {
		title = "Suggestion"
	}
	category := c.Category
	if category == "" {
		category = "other"
	}
	severity := domain.NormalizeSeverity(c.Severity)

	meta := fmt.Sprintf("%s | %s", category, severity)
	if c.Confidence != nil {
		meta = fmt.Sprintf("%s | %.0f%%", meta, *c.Confidence*100)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** — _%s_\n\n", title, meta)
	b.WriteString(strings.TrimSpace(c.Message))

	if c.Suggestion != nil && *c.Suggestion != "" {
		b.WriteString("\n\n**Suggested change:**\n\n```\n")
		b.WriteString(*c.Suggestion)
		b.WriteString("\n```")
	}
	return b.String()
}

func writeListSection(b *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	b.WriteString("## " + heading + "\n")
	for i, item := range items {
		if i >= limit {
			break
		}
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}

// riskIndicator maps a risk level onto the banner emoji.
func riskIndicator(risk string) string {
	switch strings.ToLower(risk) {
	case domain.RiskCritical:
		return "🔴"
	case domain.RiskHigh:
		return "🟠"
	case domain.RiskMedium:
		return "🟡"
	default:
		return "🟢"
	}
}
