package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest signals missing or invalid caller input.
	ErrBadRequest = errors.New("bad request")
	// ErrExtraction signals that a source page could not be loaded or the
	// browser could not be driven. Fatal to the ingestion call.
	ErrExtraction = errors.New("extraction failed")
	// ErrNoReviews signals that the page rendered but no review elements
	// matched. Distinct from ErrExtraction so callers can treat structural
	// drift as a warning while still indexing the page text.
	ErrNoReviews = errors.New("no reviews extracted")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrRetrieval signals that the vector index could not be searched.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration signals that the chat completion call failed.
	ErrGeneration = errors.New("generation failed")
	// ErrPartialIndex signals that some chunks failed to index.
	ErrPartialIndex = errors.New("partial index failure")
)

// PartialIndexError wraps ErrPartialIndex with the chunk indices that failed
// to embed or upsert, so a retry can target only the missing chunks.
type PartialIndexError struct {
	FailedChunks []int
}

func (e *PartialIndexError) Error() string {
	return fmt.Sprintf("%s: chunks %v", ErrPartialIndex.Error(), e.FailedChunks)
}

func (e *PartialIndexError) Unwrap() error { return ErrPartialIndex }

// NewPartialIndex creates a partial index error for the given chunk indices.
func NewPartialIndex(failed []int) error {
	return &PartialIndexError{FailedChunks: failed}
}
