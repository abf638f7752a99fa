// Package search retrieves document chunks by vector similarity.
package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/profscope/profscope/internal/db"
	"github.com/profscope/profscope/internal/domain"
)

// searcher is the consumer interface for KNN queries (ISP).
type searcher interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo runs KNN queries against the chunk index and maps hits back into
// domain chunks.
type Repo struct {
	store  searcher
	prefix string
}

// New creates a search repository.
func New(s searcher, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// __vector_score is requested so entries carry a similarity score.
var returnFields = []string{"__content", "source_url", "entity", "chunk_index", "__vector_score"}

// TopK returns up to k chunks nearest to the query vector, most similar
// first. The filter narrows the candidate set before the KNN step; an
// empty filter searches the whole index.
func (r *Repo) TopK(ctx context.Context, vector []float32, f domain.Filter, k int) ([]domain.ScoredChunk, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.prefix + "chunks:idx",
		Filter:       f,
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetrieval, err)
	}

	chunks := make([]domain.ScoredChunk, 0, len(res.Entries))
	for _, e := range res.Entries {
		chunks = append(chunks, entryToChunk(e))
	}
	return chunks, nil
}

func entryToChunk(e db.SearchEntry) domain.ScoredChunk {
	idx, _ := strconv.Atoi(e.Fields["chunk_index"])
	return domain.ScoredChunk{
		DocumentChunk: domain.DocumentChunk{
			Text:       e.Fields["__content"],
			SourceURL:  e.Fields["source_url"],
			EntityName: e.Fields["entity"],
			ChunkIndex: idx,
		},
		Score: e.Score,
	}
}
