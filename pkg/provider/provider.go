// Package provider defines the model-backend contract used for the
// secondary summarization pass. The orchestrator only needs "send
// role-tagged messages, get text back"; adapters live in subpackages.
package provider

import "context"

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	// Temperature of nil means backend default. The secondary pass
	// pins it to zero.
	Temperature *float64 `json:"temperature,omitempty"`

	MaxTokens int `json:"max_tokens,omitempty"`
}

// Response carries the completion text.
type Response struct {
	Content string
	Model   string

	// FinishReason is the backend's stop reason, if reported.
	FinishReason string
}

// Provider performs completions against one model backend.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Complete performs a single non-streaming completion.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Close releases provider resources.
	Close() error
}

// Zero is a convenience for pinning deterministic sampling.
func Zero() *float64 {
	z := 0.0
	return &z
}
