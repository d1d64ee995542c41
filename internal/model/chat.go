// Package model provides chat completion clients for the LLM providers that
// back the reviewers. Every client speaks the same minimal interface so the
// agent layer never depends on a specific SDK.
package model

import "context"

// Request is one chat completion call. System carries the reviewer persona
// and taxonomy, User carries the diff and retrieved context. JSONMode asks
// the provider to constrain output to a JSON object where supported.
type Request struct {
	System   string
	User     string
	JSONMode bool
}

// Response is the completion text plus token accounting.
type Response struct {
	Text   string
	Tokens int
}

// Chat is a provider-agnostic chat completion client.
type Chat interface {
	// Complete performs one completion. It respects context cancellation
	// and returns an error for API failures, which the caller treats as
	// reviewer unavailability.
	Complete(ctx context.Context, req Request) (Response, error)

	// Name identifies the provider, e.g. "openai".
	Name() string
}
