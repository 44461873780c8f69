// Package payload shapes the set of changed files into a review request
// that fits within configured size budgets. Selection is greedy and
// order-preserving: files are considered in the order given, truncated
// individually, and selection stops at the first file that would push
// the running total past the overall budget.
package payload

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

// Limits holds the size budgets applied during shaping.
type Limits struct {
	MaxFiles             int // Maximum number of files selected
	MaxPatchCharsPerFile int // Per-file patch truncation ceiling
	MaxPatchCharsTotal   int // Ceiling on the summed truncated patch lengths
}

// Result describes what shaping selected and how large it is.
type Result struct {
	Files           []domain.FileChange // Selected files, input order preserved
	TotalChars      int                 // Sum of truncated patch lengths
	EstimatedTokens int                 // Token estimate for the selected patches
	Dropped         int                 // Candidates not selected (budget, cap, or empty patch)
}

// Shape selects and truncates candidate files under the given limits.
//
// Files with an empty patch (binary or otherwise content-free) are
// skipped entirely and never counted against any budget. Each selected
// file's patch is truncated to MaxPatchCharsPerFile. The first file
// whose truncated length would exceed MaxPatchCharsTotal halts
// selection; that file and everything after it are dropped, with no
// backfill from later smaller files. Selection also halts once MaxFiles
// files have been chosen. A file either counts wholly toward the total
// or not at all.
func Shape(candidates []domain.FileChange, limits Limits) Result {
	res := Result{Files: make([]domain.FileChange, 0, len(candidates))}

	total := 0
	for i, f := range candidates {
		if f.Patch == "" {
			res.Dropped++
			continue
		}
		if limits.MaxFiles > 0 && len(res.Files) >= limits.MaxFiles {
			res.Dropped++
			continue
		}

		patch := f.Patch
		if limits.MaxPatchCharsPerFile > 0 && len(patch) > limits.MaxPatchCharsPerFile {
			patch = truncatePatch(patch, limits.MaxPatchCharsPerFile)
		}

		if limits.MaxPatchCharsTotal > 0 && total+len(patch) > limits.MaxPatchCharsTotal {
			// Budget exhausted: this file and everything after it are dropped.
			res.Dropped += len(candidates) - i
			break
		}

		f.Patch = patch
		total += len(patch)
		res.Files = append(res.Files, f)
	}

	res.TotalChars = total
	for _, f := range res.Files {
		res.EstimatedTokens += EstimateTokens(f.Patch)
	}
	return res
}

// truncatePatch cuts s at limit bytes, backing the cut off to a rune
// boundary so the truncated patch stays valid UTF-8.
func truncatePatch(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

var (
	defaultEncoder *tiktoken.Tiktoken
	encoderOnce    sync.Once
	encoderErr     error
)

// getEncoder returns the shared tiktoken encoder, initializing it lazily.
func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		defaultEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return defaultEncoder, encoderErr
}

// EstimateTokens returns an estimated token count for the given text
// using the cl100k_base encoding. Character budgets remain the
// enforced limit; the token estimate is reported so operators can see
// how the two measures relate for their diffs.
func EstimateTokens(text string) int {
	enc, err := getEncoder()
	if err != nil {
		// Fallback to character-based estimate if tiktoken fails
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
