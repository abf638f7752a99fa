// Package retrieve turns a question into the chunks most relevant to it.
// A structured filter is derived from the question first, so "what do
// students say about Dr Smith" searches only Dr Smith's chunks; every
// structured step degrades to a plain unfiltered KNN search on failure.
package retrieve

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/domain"
)

const filterPrompt = "Extract search filters from the user's question about professor or course reviews. " +
	`Reply with a JSON object with two string fields: "entity" (the professor or course named, or empty) ` +
	`and "source_url" (a page URL if the question references one, or empty). ` +
	"Use empty strings when the question does not constrain a field."

// Service retrieves context chunks for a question.
type Service struct {
	embedder  Embedder
	completer Completer
	searcher  ChunkSearcher
	topK      int
	logger    *zap.Logger
}

// New creates a retrieval service.
func New(embedder Embedder, completer Completer, searcher ChunkSearcher, topK int, logger *zap.Logger) *Service {
	return &Service{
		embedder:  embedder,
		completer: completer,
		searcher:  searcher,
		topK:      topK,
		logger:    logger,
	}
}

// Retrieve returns up to topK chunks relevant to the question, most
// similar first.
func (s *Service) Retrieve(ctx context.Context, question string) ([]domain.ScoredChunk, error) {
	filter := s.deriveFilter(ctx, question)

	res, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	chunks, err := s.searcher.TopK(ctx, res.Embedding, filter, s.topK)
	if err != nil && !filter.IsEmpty() {
		// A bad derived filter must not sink the question.
		s.logger.Warn("filtered search failed, retrying unfiltered",
			zap.String("entity", filter.Entity),
			zap.Error(err),
		)
		return s.searcher.TopK(ctx, res.Embedding, domain.Filter{}, s.topK)
	}
	return chunks, err
}

// deriveFilter asks the model to pull structured constraints out of the
// question. Best-effort: any failure yields an empty filter.
func (s *Service) deriveFilter(ctx context.Context, question string) domain.Filter {
	reply, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Turns: []domain.Turn{
			{Role: domain.RoleSystem, Content: filterPrompt},
			{Role: domain.RoleUser, Content: question},
		},
		JSONOnly: true,
		Op:       "filter",
	})
	if err != nil {
		s.logger.Warn("filter derivation failed", zap.Error(err))
		return domain.Filter{}
	}

	var parsed struct {
		Entity    string `json:"entity"`
		SourceURL string `json:"source_url"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		s.logger.Warn("filter reply is not valid JSON", zap.String("reply", reply))
		return domain.Filter{}
	}
	return domain.Filter{Entity: parsed.Entity, SourceURL: parsed.SourceURL}
}
