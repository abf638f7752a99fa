package answer

import (
	"context"

	"github.com/profscope/profscope/internal/domain"
)

// Sessions tracks per-conversation history.
type Sessions interface {
	GetOrCreate(id string) string
	History(id string) []domain.Turn
	Append(id string, turns ...domain.Turn)
	Clear(id string)
}

// Retriever finds the chunks most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]domain.ScoredChunk, error)
}

// Completer generates a chat completion for a conversation.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}
