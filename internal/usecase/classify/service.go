// Package classify assigns a sentiment label to extracted reviews.
// Classification is best-effort: a failed or malformed model response
// degrades the label to Unknown, never the ingestion call.
package classify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/profscope/profscope/internal/domain"
	"github.com/profscope/profscope/internal/metrics"
)

const systemPrompt = "You are a sentiment classifier for professor and course reviews. " +
	"Answer with exactly one word: Positive, Negative, or Neutral."

// Service classifies review sentiment through a chat model.
type Service struct {
	completer Completer
	workers   int
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a classification service. workers bounds concurrent model
// calls; timeout applies per call.
func New(completer Completer, workers int, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		completer: completer,
		workers:   workers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Classify labels a single review text. Any failure returns Unknown.
func (s *Service) Classify(ctx context.Context, text string) domain.SentimentLabel {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Turns: []domain.Turn{
			{Role: domain.RoleSystem, Content: systemPrompt},
			{Role: domain.RoleUser, Content: text},
		},
		Op: "classify",
	})
	if err != nil {
		s.logger.Warn("sentiment classification failed", zap.Error(err))
		return domain.SentimentUnknown
	}

	label := domain.ParseSentiment(reply)
	if label == domain.SentimentUnknown {
		s.logger.Warn("sentiment reply outside label set", zap.String("reply", reply))
	}
	return label
}

// ClassifyAll labels every extracted review concurrently and returns the
// records in input order. Failed classifications carry Unknown.
func (s *Service) ClassifyAll(ctx context.Context, reviews []domain.ExtractedReview, sourceURL string) []domain.ReviewRecord {
	records := make([]domain.ReviewRecord, len(reviews))
	capturedAt := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range reviews {
		g.Go(func() error {
			label := s.Classify(gctx, reviews[i].Text)
			records[i] = domain.ReviewRecord{
				EntityName: reviews[i].EntityName,
				Comment:    reviews[i].Text,
				Sentiment:  label,
				CapturedAt: capturedAt,
				SourceURL:  sourceURL,
			}
			metrics.IngestReviewsClassified.WithLabelValues(string(label)).Inc()
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	return records
}
