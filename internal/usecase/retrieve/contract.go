package retrieve

import (
	"context"

	"github.com/profscope/profscope/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Completer generates a chat completion for a conversation.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// ChunkSearcher runs KNN queries over the chunk index.
type ChunkSearcher interface {
	TopK(ctx context.Context, vector []float32, f domain.Filter, k int) ([]domain.ScoredChunk, error)
}
