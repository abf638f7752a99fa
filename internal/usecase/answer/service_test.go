package answer

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/domain"
	"github.com/profscope/profscope/internal/usecase/session"
)

type fakeRetriever struct {
	chunks []domain.ScoredChunk
	err    error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string) ([]domain.ScoredChunk, error) {
	return f.chunks, f.err
}

type fakeCompleter struct {
	gotReq domain.CompletionRequest
	reply  string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	f.gotReq = req
	return f.reply, f.err
}

func TestAnswer_EmptyQuestionIsBadRequest(t *testing.T) {
	s := New(session.NewStore(), &fakeRetriever{}, &fakeCompleter{}, zap.NewNop())

	_, err := s.Answer(context.Background(), "   ", "")
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestAnswer_ComposesSystemHistoryAndContext(t *testing.T) {
	sessions := session.NewStore()
	completer := &fakeCompleter{reply: "Smith grades hard."}
	s := New(sessions, &fakeRetriever{chunks: []domain.ScoredChunk{
		{DocumentChunk: domain.DocumentChunk{Text: "tough grader"}},
		{DocumentChunk: domain.DocumentChunk{Text: "lots of homework"}},
	}}, completer, zap.NewNop())

	res, err := s.Answer(context.Background(), "How does Dr Smith grade?", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Response != "Smith grades hard." {
		t.Errorf("response = %q", res.Response)
	}
	if res.SessionID == "" {
		t.Error("expected a session id")
	}

	turns := completer.gotReq.Turns
	if len(turns) != 3 {
		t.Fatalf("turns = %d, want system + user + context", len(turns))
	}
	if turns[0].Role != domain.RoleSystem {
		t.Errorf("first turn role = %q", turns[0].Role)
	}
	if turns[1].Role != domain.RoleUser || turns[1].Content != "How does Dr Smith grade?" {
		t.Errorf("user turn = %+v", turns[1])
	}
	if turns[2].Role != domain.RoleAssistant {
		t.Errorf("context turn role = %q", turns[2].Role)
	}
	if want := "Relevant reviews:\ntough grader\n\nlots of homework"; turns[2].Content != want {
		t.Errorf("context turn = %q, want %q", turns[2].Content, want)
	}
	if completer.gotReq.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", completer.gotReq.Temperature)
	}
}

func TestAnswer_EmptyContextAddsNoTurn(t *testing.T) {
	completer := &fakeCompleter{reply: "I don't have that information."}
	s := New(session.NewStore(), &fakeRetriever{}, completer, zap.NewNop())

	if _, err := s.Answer(context.Background(), "q", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(completer.gotReq.Turns); got != 2 {
		t.Fatalf("turns = %d, want system + user only", got)
	}
}

func TestAnswer_HistoryAccumulatesAcrossTurns(t *testing.T) {
	sessions := session.NewStore()
	completer := &fakeCompleter{reply: "a1"}
	s := New(sessions, &fakeRetriever{}, completer, zap.NewNop())

	first, err := s.Answer(context.Background(), "q1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	completer.reply = "a2"
	second, err := s.Answer(context.Background(), "q2", first.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session changed: %q vs %q", second.SessionID, first.SessionID)
	}

	// system + q1 + a1 + q2 on the second generation
	turns := completer.gotReq.Turns
	if len(turns) != 4 {
		t.Fatalf("turns = %d, want 4", len(turns))
	}
	if turns[1].Content != "q1" || turns[2].Content != "a1" || turns[3].Content != "q2" {
		t.Errorf("history order wrong: %+v", turns[1:])
	}
}

func TestAnswer_RetrievalErrorPropagates(t *testing.T) {
	sessions := session.NewStore()
	s := New(sessions, &fakeRetriever{err: domain.ErrRetrieval}, &fakeCompleter{}, zap.NewNop())

	res, err := s.Answer(context.Background(), "q", "s-1")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected retrieval error, got %v", err)
	}
	if res.SessionID != "s-1" {
		t.Errorf("session id = %q", res.SessionID)
	}
	if got := len(sessions.History("s-1")); got != 0 {
		t.Errorf("failed retrieval should record nothing, history = %d", got)
	}
}

func TestAnswer_GenerationErrorKeepsUserTurn(t *testing.T) {
	sessions := session.NewStore()
	s := New(sessions, &fakeRetriever{}, &fakeCompleter{err: domain.ErrGeneration}, zap.NewNop())

	_, err := s.Answer(context.Background(), "q", "s-1")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	h := sessions.History("s-1")
	if len(h) != 1 || h[0].Role != domain.RoleUser {
		t.Fatalf("history = %+v, want only the user turn", h)
	}
}

func TestClearSession(t *testing.T) {
	sessions := session.NewStore()
	s := New(sessions, &fakeRetriever{}, &fakeCompleter{reply: "a"}, zap.NewNop())

	res, err := s.Answer(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.ClearSession(res.SessionID)
	if got := len(sessions.History(res.SessionID)); got != 0 {
		t.Fatalf("history after clear = %d", got)
	}
}
