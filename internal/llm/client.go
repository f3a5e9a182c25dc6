// Package llm talks to the review backend: it sends built prompts, reports
// token usage, classifies failures as transient or permanent, and parses
// raw model output into structured findings.
package llm

import "context"

// Request is a backend-facing structured message.
type Request struct {
	System    string
	User      string
	MaxTokens int
}

// Usage carries the backend's token accounting for one completion.
// Reported is false when the backend returned no usage block and the
// counts must be estimated by the caller.
type Usage struct {
	InputTokens  int
	OutputTokens int
	Reported     bool
}

// Completion is a normalized backend response.
type Completion struct {
	Text  string
	Usage Usage
}

// Backend sends one prompt and returns the structured response or an error.
// Implementations classify failures with TransientError / PermanentError so
// the dispatcher knows what to retry.
type Backend interface {
	Complete(ctx context.Context, req Request) (Completion, error)
	Model() string
}
