// Package llmclient abstracts the single LLM call every role executor
// makes, so internal/roleexec can run against a fake in tests and
// against genkit in production without change.
package llmclient

import "context"

// Request is one role turn's LLM call: a fully composed prompt and the
// model name to route it to.
type Request struct {
	Model  string
	Prompt string
}

// Client issues one text-completion call and returns the raw model
// text, before any JSON-block extraction happens in roleexec.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}
