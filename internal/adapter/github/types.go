package github

// PullRequest is the subset of the PR object the pipeline reads.
type PullRequest struct {
	Number  int     `json:"number"`
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	HTMLURL string  `json:"html_url"`
	State   string  `json:"state"`
	Head    Ref     `json:"head"`
	Labels  []Label `json:"labels"`
}

// Ref identifies a commit at the tip of a branch.
type Ref struct {
	SHA string `json:"sha"`
}

// Label is a PR label.
type Label struct {
	Name string `json:"name"`
}

// PullFile is one changed file as listed by the pulls/files endpoint.
// Patch is empty for binary files.
type PullFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// IssueComment is a discussion comment on the PR thread.
type IssueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// ReviewCommentInput anchors an inline comment to a diff location.
type ReviewCommentInput struct {
	Body      string  `json:"body"`
	Path      string  `json:"path"`
	Side      string  `json:"side"`
	Line      int     `json:"line"`
	StartLine *int    `json:"start_line,omitempty"`
	StartSide *string `json:"start_side,omitempty"`
}

// CheckRunInput describes a completed check run.
type CheckRunInput struct {
	Name       string
	HeadSHA    string
	Title      string
	Summary    string
	Conclusion string
}
