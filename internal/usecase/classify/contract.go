package classify

import (
	"context"

	"github.com/profscope/profscope/internal/domain"
)

// Completer generates a chat completion for a conversation.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}
