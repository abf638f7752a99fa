// Package embcache wraps an embedder with a Redis-backed cache. Texts are
// keyed by model plus content hash, so repeated ingestion of the same page
// and repeated questions skip the embedding API entirely.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/db"
	"github.com/profscope/profscope/internal/domain"
	"github.com/profscope/profscope/internal/metrics"
)

// Embedder decorates another embedder with caching.
type Embedder struct {
	inner  domain.Embedder
	store  db.KVStore
	prefix string
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a caching embedder in front of inner. A zero ttl stores
// entries without expiry.
func New(inner domain.Embedder, store db.KVStore, keyPrefix, model string, ttl time.Duration, logger *zap.Logger) *Embedder {
	return &Embedder{
		inner:  inner,
		store:  store,
		prefix: keyPrefix,
		model:  model,
		ttl:    ttl,
		logger: logger,
	}
}

// Embed returns the cached vector for text when present, otherwise embeds
// through the inner embedder and stores the result. Cache failures never
// fail the embedding; they only cost an extra API call.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := e.cacheKey(text)

	if data, err := e.store.Get(ctx, key); err == nil {
		var vec []float32
		if jsonErr := json.Unmarshal(data, &vec); jsonErr == nil {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
		e.logger.Warn("corrupt embedding cache entry", zap.String("key", key))
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		e.logger.Warn("embedding cache read failed", zap.Error(err))
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	if data, jsonErr := json.Marshal(res.Embedding); jsonErr == nil {
		var storeErr error
		if e.ttl > 0 {
			storeErr = e.store.SetWithTTL(ctx, key, data, e.ttl)
		} else {
			storeErr = e.store.Set(ctx, key, data)
		}
		if storeErr != nil {
			e.logger.Warn("embedding cache write failed", zap.Error(storeErr))
		}
	}
	return res, nil
}

func (e *Embedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return e.prefix + "emb:" + e.model + ":" + hex.EncodeToString(sum[:])
}
