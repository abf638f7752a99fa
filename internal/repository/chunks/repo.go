// Package chunks persists document chunks and their embeddings in the
// vector index. Chunk keys are derived from (source url, chunk index), so
// re-ingesting a page overwrites its chunk set instead of duplicating it.
package chunks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/profscope/profscope/internal/db"
	"github.com/profscope/profscope/internal/domain"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig tunes the vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores chunks as Redis hashes under an FT vector index.
type Repo struct {
	store  store
	prefix string
	dim    int
	hnsw   HNSWConfig
}

// New creates a chunk repository.
func New(s store, keyPrefix string, vectorDim int) *Repo {
	return &Repo{store: s, prefix: keyPrefix, dim: vectorDim}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// IndexName returns the FT index name used for chunk search.
func (r *Repo) IndexName() string {
	return r.prefix + "chunks:idx"
}

// EnsureIndex creates the chunk FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.IndexName(),
		Prefixes: []string{r.prefix + "chunk:"},
		Fields: []db.IndexField{
			{Name: "source_url", Type: db.IndexFieldTag},
			{Name: "entity", Type: db.IndexFieldTag},
			{Name: "chunk_index", Type: db.IndexFieldNumeric},
			{
				// FT.SEARCH KNN clauses address the field as @vector.
				Name:              "__vector",
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// DeleteBySource removes every chunk previously indexed for the given url.
func (r *Repo) DeleteBySource(ctx context.Context, sourceURL string) error {
	pattern := r.chunkKey(sourceURL, -1)
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return fmt.Errorf("scan chunks for %s: %w", sourceURL, err)
	}
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("delete chunk %s: %w", key, err)
		}
	}
	return nil
}

// Upsert writes the given chunks. Individual failures do not stop the
// rest; when any chunk fails, the returned error is a
// domain.PartialIndexError listing the failed chunk indices.
func (r *Repo) Upsert(ctx context.Context, items []domain.DocumentChunk) error {
	var failed []int
	for i := range items {
		c := &items[i]
		key := r.chunkKey(c.SourceURL, c.ChunkIndex)
		if err := r.store.HSet(ctx, key, buildHashFields(c)); err != nil {
			failed = append(failed, c.ChunkIndex)
		}
	}
	if len(failed) > 0 {
		return domain.NewPartialIndex(failed)
	}
	return nil
}

// chunkKey builds the storage key for one chunk. A negative index yields
// the SCAN pattern matching all chunks of the source url.
func (r *Repo) chunkKey(sourceURL string, chunkIndex int) string {
	if chunkIndex < 0 {
		return r.prefix + "chunk:" + sourceID(sourceURL) + ":*"
	}
	return r.prefix + "chunk:" + sourceID(sourceURL) + ":" + strconv.Itoa(chunkIndex)
}

// sourceID derives a fixed-length key-safe identifier from a url.
func sourceID(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return hex.EncodeToString(sum[:8])
}
