// Package ingest runs the document pipeline: render the source page,
// classify its reviews, chunk and embed the page text, and index the
// result for retrieval. Re-ingesting a url replaces its chunk set.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/chunker"
	"github.com/profscope/profscope/internal/domain"
	"github.com/profscope/profscope/internal/metrics"
)

// Service ingests review pages into the index.
type Service struct {
	extractor  Extractor
	classifier Classifier
	embedder   Embedder
	chunks     ChunkStore
	reviews    ReviewStore
	chunkSize  int
	logger     *zap.Logger
}

// New creates an ingestion service.
func New(
	extractor Extractor,
	classifier Classifier,
	embedder Embedder,
	chunks ChunkStore,
	reviews ReviewStore,
	chunkSize int,
	logger *zap.Logger,
) *Service {
	return &Service{
		extractor:  extractor,
		classifier: classifier,
		embedder:   embedder,
		chunks:     chunks,
		reviews:    reviews,
		chunkSize:  chunkSize,
		logger:     logger,
	}
}

// Report summarizes one ingestion run.
type Report struct {
	EntityName    string
	ChunksIndexed int
	Reviews       []domain.ReviewRecord
}

// Ingest processes the page at url end to end. A page with no
// recognizable reviews still gets its text chunked and indexed. When some
// chunks fail to embed or index, the returned error is a
// domain.PartialIndexError and the report counts what made it in.
func (s *Service) Ingest(ctx context.Context, url string) (Report, error) {
	if strings.TrimSpace(url) == "" {
		return Report{}, fmt.Errorf("no url provided: %w", domain.ErrBadRequest)
	}

	ext, err := s.extractor.Extract(ctx, url)
	if err != nil && !errors.Is(err, domain.ErrNoReviews) {
		metrics.IngestPagesTotal.WithLabelValues("error").Inc()
		return Report{}, err
	}
	if errors.Is(err, domain.ErrNoReviews) {
		s.logger.Warn("no reviews matched on page, indexing text only", zap.String("url", url))
	}

	report := Report{EntityName: ext.EntityName()}

	if len(ext.Reviews) > 0 {
		report.Reviews = s.classifier.ClassifyAll(ctx, ext.Reviews, url)
		if report.EntityName == "" {
			// Records key by entity; without a name they would be
			// unretrievable, so only the chunks get indexed.
			s.logger.Warn("no entity name on page, skipping record persistence", zap.String("url", url))
		} else if err := s.reviews.Append(ctx, report.Reviews); err != nil {
			metrics.IngestPagesTotal.WithLabelValues("error").Inc()
			return Report{}, fmt.Errorf("persist review records: %w", err)
		}
	}

	pieces := chunker.Split(ext.PageText, s.chunkSize)

	if err := s.chunks.DeleteBySource(ctx, url); err != nil {
		// Stale chunks are overwritten by key anyway when counts match;
		// only shrunken pages leave leftovers.
		s.logger.Warn("could not clear previous chunks", zap.String("url", url), zap.Error(err))
	}

	items := make([]domain.DocumentChunk, 0, len(pieces))
	var failed []int
	for i, piece := range pieces {
		res, err := s.embedder.Embed(ctx, piece)
		if err != nil {
			s.logger.Warn("chunk embedding failed",
				zap.String("url", url), zap.Int("chunk", i), zap.Error(err))
			failed = append(failed, i)
			continue
		}
		items = append(items, domain.DocumentChunk{
			Text:       piece,
			SourceURL:  url,
			EntityName: report.EntityName,
			ChunkIndex: i,
			Vector:     res.Embedding,
		})
	}

	if err := s.chunks.Upsert(ctx, items); err != nil {
		var pErr *domain.PartialIndexError
		if !errors.As(err, &pErr) {
			metrics.IngestPagesTotal.WithLabelValues("error").Inc()
			return Report{}, fmt.Errorf("index chunks: %w", err)
		}
		failed = append(failed, pErr.FailedChunks...)
	}

	report.ChunksIndexed = len(pieces) - len(failed)
	metrics.IngestChunksIndexed.Add(float64(report.ChunksIndexed))

	if len(failed) > 0 {
		sort.Ints(failed)
		metrics.IngestPagesTotal.WithLabelValues("partial").Inc()
		return report, domain.NewPartialIndex(failed)
	}

	metrics.IngestPagesTotal.WithLabelValues("success").Inc()
	s.logger.Info("page ingested",
		zap.String("url", url),
		zap.String("entity", report.EntityName),
		zap.Int("chunks", report.ChunksIndexed),
		zap.Int("reviews", len(report.Reviews)),
	)
	return report, nil
}
