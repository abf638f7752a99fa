package ingest

import (
	"context"

	"github.com/profscope/profscope/internal/domain"
)

// Extractor renders a source page and pulls out its text and reviews.
type Extractor interface {
	Extract(ctx context.Context, url string) (domain.Extraction, error)
}

// Classifier labels extracted reviews with sentiment.
type Classifier interface {
	ClassifyAll(ctx context.Context, reviews []domain.ExtractedReview, sourceURL string) []domain.ReviewRecord
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ChunkStore persists chunks in the vector index.
type ChunkStore interface {
	DeleteBySource(ctx context.Context, sourceURL string) error
	Upsert(ctx context.Context, items []domain.DocumentChunk) error
}

// ReviewStore persists classified review records.
type ReviewStore interface {
	Append(ctx context.Context, records []domain.ReviewRecord) error
}
