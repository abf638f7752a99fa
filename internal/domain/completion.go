package domain

import "context"

// CompletionRequest describes one chat generation call.
type CompletionRequest struct {
	Turns       []Turn
	Temperature float32
	MaxTokens   int
	// JSONOnly forces the provider to return a single JSON object.
	JSONOnly bool
	// Op labels the call for observability (chat, classify, filter).
	Op string
}

// Completer generates a chat completion for a conversation.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
