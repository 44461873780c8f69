package openai

import "github.com/reviewbotdev/reviewbot/internal/domain"

// responsesRequest is the OpenAI Responses API request body.
type responsesRequest struct {
	Model       string      `json:"model"`
	Input       []message   `json:"input"`
	Text        textOptions `json:"text"`
	Temperature float64     `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type textOptions struct {
	Format outputFormat `json:"format"`
}

// outputFormat pins the model to the strict review schema. The schema is
// the same declarative value the response is validated against.
type outputFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema *domain.Schema `json:"schema"`
}

// responsesReply is the subset of the Responses API reply we read:
// message output items carrying output_text content parts.
type responsesReply struct {
	Output []outputItem `json:"output"`
	Error  *apiError    `json:"error"`
}

type outputItem struct {
	Type    string        `json:"type"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Message string `json:"message"`
}
