package github

import (
	"encoding/json"
	"fmt"
	"os"
)

// Event is the slice of a workflow event payload the pipeline reads.
// Pull request events carry the number directly; issue-comment events
// carry it on the issue, which must itself reference a pull request.
type Event struct {
	PullRequest *struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Issue *struct {
		Number      int             `json:"number"`
		PullRequest json.RawMessage `json:"pull_request"`
	} `json:"issue"`
	Comment *struct {
		Body string `json:"body"`
	} `json:"comment"`
}

// ReadEvent parses the event payload JSON at path.
func ReadEvent(path string) (*Event, error) {
	if path == "" {
		return nil, fmt.Errorf("event payload path not set")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event payload: %w", err)
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("parse event payload: %w", err)
	}
	return &ev, nil
}

// PullNumber extracts the pull request number from the event, or zero
// when the event does not concern a pull request.
func (e *Event) PullNumber() int {
	if e == nil {
		return 0
	}
	if e.PullRequest != nil && e.PullRequest.Number > 0 {
		return e.PullRequest.Number
	}
	if e.Issue != nil && e.Issue.Number > 0 &&
		len(e.Issue.PullRequest) > 0 && string(e.Issue.PullRequest) != "null" {
		return e.Issue.Number
	}
	return 0
}

// CommentBody returns the body of the triggering comment, if any.
func (e *Event) CommentBody() string {
	if e == nil || e.Comment == nil {
		return ""
	}
	return e.Comment.Body
}
