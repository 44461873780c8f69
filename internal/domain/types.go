package domain

// File change statuses reported by the source-control host.
const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRemoved  = "removed"
	FileStatusRenamed  = "renamed"
)

// Review modes. Safe mode tells the model not to assume access to secrets
// or trust repository content; trusted mode assumes an internal repo.
const (
	ModeSafe    = "safe"
	ModeTrusted = "trusted"
)

// Diff sides for inline comments. RIGHT anchors to the new file,
// LEFT to the old one.
const (
	SideRight = "RIGHT"
	SideLeft  = "LEFT"
)

// Risk levels for the overall verdict and per-file summaries.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Review decisions.
const (
	DecisionApprove        = "approve"
	DecisionComment        = "comment"
	DecisionRequestChanges = "request_changes"
)

// PRMetadata carries the pull request fields the review service needs.
type PRMetadata struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	URL     string `json:"url"`
	HeadSHA string `json:"head_sha"`
}

// FileChange is one changed file in the outbound review request.
// Patch is a unified diff already truncated to the per-file ceiling;
// it is empty only for binary files, which are excluded upstream.
type FileChange struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// ReviewConstraints are the policy knobs forwarded to the review service.
type ReviewConstraints struct {
	MinConfidence        float64 `json:"min_confidence"`
	MinSeverityForInline string  `json:"min_severity_for_inline"`
	MaxInlineComments    int     `json:"max_inline_comments"`
}

// ReviewRequest is the shaped payload sent to the review service.
// It is built once by the pipeline and never mutated afterwards.
type ReviewRequest struct {
	Repo       string            `json:"repo"`
	PullNumber int               `json:"pull_number"`
	PR         PRMetadata        `json:"pr"`
	Focus      *string           `json:"focus"`
	Mode       string            `json:"mode"`
	Config     ReviewConstraints `json:"config"`
	Files      []FileChange      `json:"files"`
}

// Overall is the verdict block of a review.
type Overall struct {
	Risk            string   `json:"risk"`
	Decision        string   `json:"decision"`
	Summary         string   `json:"summary"`
	TestSuggestions []string `json:"test_suggestions"`
	Positives       []string `json:"positives"`
	Caveats         []string `json:"caveats"`
}

// FileSummary is a per-file assessment within a review.
type FileSummary struct {
	Path    string `json:"path"`
	Risk    string `json:"risk"`
	Summary string `json:"summary"`
}

// FindingComment is one discrete review observation eligible to become an
// inline PR comment. Produced once per review call, filtered by policy,
// and mapped at most once onto a posted comment.
type FindingComment struct {
	Path       string   `json:"path"`
	Side       string   `json:"side"`
	Line       int      `json:"line"`
	StartLine  *int     `json:"start_line"`
	StartSide  *string  `json:"start_side"`
	Category   string   `json:"category"`
	Severity   string   `json:"severity"`
	Confidence *float64 `json:"confidence"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Suggestion *string  `json:"suggestion"`
}

// ReviewResult is the structured review produced by the model service.
// The shape is closed: the strict schema forbids additional fields and
// requires every field listed here. Meta is always empty.
type ReviewResult struct {
	Overall       Overall          `json:"overall"`
	Highlights    []string         `json:"highlights"`
	FileSummaries []FileSummary    `json:"file_summaries"`
	Comments      []FindingComment `json:"comments"`
	Meta          map[string]any   `json:"meta"`
}
