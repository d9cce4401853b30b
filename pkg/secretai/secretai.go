// Package secretai talks to Secret AI confidential inference workers: model
// and endpoint discovery through the worker smart contract, then chat
// completions against the discovered Ollama-compatible endpoint.
package secretai

import "context"

// Message is a single chat message sent to or received from the model
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chatter is the inference interface the agent depends on
type Chatter interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Model() string
}
