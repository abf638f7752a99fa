package retrieve

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/domain"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec}, nil
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, _ domain.CompletionRequest) (string, error) {
	return f.reply, f.err
}

type fakeSearcher struct {
	filters  []domain.Filter
	chunks   []domain.ScoredChunk
	firstErr error
}

func (f *fakeSearcher) TopK(_ context.Context, _ []float32, filter domain.Filter, _ int) ([]domain.ScoredChunk, error) {
	f.filters = append(f.filters, filter)
	if f.firstErr != nil && len(f.filters) == 1 {
		return nil, f.firstErr
	}
	return f.chunks, nil
}

func TestRetrieve_UsesDerivedFilter(t *testing.T) {
	searcher := &fakeSearcher{chunks: []domain.ScoredChunk{{Score: 0.9}}}
	s := New(
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakeCompleter{reply: `{"entity":"Dr Smith","source_url":""}`},
		searcher, 5, zap.NewNop(),
	)

	chunks, err := s.Retrieve(context.Background(), "how is Dr Smith?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	if len(searcher.filters) != 1 || searcher.filters[0].Entity != "Dr Smith" {
		t.Fatalf("filters = %+v", searcher.filters)
	}
}

func TestRetrieve_BadFilterReplyFallsBackToEmpty(t *testing.T) {
	searcher := &fakeSearcher{}
	s := New(
		&fakeEmbedder{vec: []float32{1}},
		&fakeCompleter{reply: "not json at all"},
		searcher, 5, zap.NewNop(),
	)

	if _, err := s.Retrieve(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !searcher.filters[0].IsEmpty() {
		t.Fatalf("expected empty filter, got %+v", searcher.filters[0])
	}
}

func TestRetrieve_FilterDerivationErrorFallsBackToEmpty(t *testing.T) {
	searcher := &fakeSearcher{}
	s := New(
		&fakeEmbedder{vec: []float32{1}},
		&fakeCompleter{err: errors.New("model down")},
		searcher, 5, zap.NewNop(),
	)

	if _, err := s.Retrieve(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !searcher.filters[0].IsEmpty() {
		t.Fatalf("expected empty filter, got %+v", searcher.filters[0])
	}
}

func TestRetrieve_FilteredFailureRetriesUnfiltered(t *testing.T) {
	searcher := &fakeSearcher{
		chunks:   []domain.ScoredChunk{{Score: 0.5}},
		firstErr: domain.ErrRetrieval,
	}
	s := New(
		&fakeEmbedder{vec: []float32{1}},
		&fakeCompleter{reply: `{"entity":"Smith","source_url":""}`},
		searcher, 5, zap.NewNop(),
	)

	chunks, err := s.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	if len(searcher.filters) != 2 {
		t.Fatalf("searches = %d, want 2", len(searcher.filters))
	}
	if !searcher.filters[1].IsEmpty() {
		t.Fatalf("retry filter = %+v, want empty", searcher.filters[1])
	}
}

func TestRetrieve_UnfilteredFailurePropagates(t *testing.T) {
	searcher := &fakeSearcher{firstErr: domain.ErrRetrieval}
	s := New(
		&fakeEmbedder{vec: []float32{1}},
		&fakeCompleter{reply: `{"entity":"","source_url":""}`},
		searcher, 5, zap.NewNop(),
	)

	if _, err := s.Retrieve(context.Background(), "q"); !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected retrieval error, got %v", err)
	}
}

func TestRetrieve_EmbedErrorPropagates(t *testing.T) {
	s := New(
		&fakeEmbedder{err: domain.ErrEmbeddingProvider},
		&fakeCompleter{reply: `{}`},
		&fakeSearcher{}, 5, zap.NewNop(),
	)

	if _, err := s.Retrieve(context.Background(), "q"); !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
