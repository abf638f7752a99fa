// Package answer runs the question pipeline: resolve the session,
// retrieve context, generate a grounded reply, and record both sides of
// the exchange in the session history.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/domain"
)

// Service answers questions over the indexed review corpus.
type Service struct {
	sessions  Sessions
	retriever Retriever
	completer Completer
	logger    *zap.Logger
}

// New creates an answer service.
func New(sessions Sessions, retriever Retriever, completer Completer, logger *zap.Logger) *Service {
	return &Service{
		sessions:  sessions,
		retriever: retriever,
		completer: completer,
		logger:    logger,
	}
}

// Result is a generated answer bound to its session.
type Result struct {
	Response  string
	SessionID string
}

// Answer generates a reply to question within the given session. An empty
// sessionID starts a new conversation; the id in the result is always the
// one the exchange was recorded under.
func (s *Service) Answer(ctx context.Context, question, sessionID string) (Result, error) {
	if strings.TrimSpace(question) == "" {
		return Result{}, fmt.Errorf("no question provided: %w", domain.ErrBadRequest)
	}

	id := s.sessions.GetOrCreate(sessionID)

	chunks, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return Result{SessionID: id}, fmt.Errorf("retrieve context: %w", err)
	}

	// The user turn is recorded before generation so a failed generation
	// still leaves the question in history for a retry.
	s.sessions.Append(id, domain.Turn{Role: domain.RoleUser, Content: question})

	turns := compose(s.sessions.History(id), contextFromChunks(chunks))
	reply, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Turns:       turns,
		Temperature: 0,
		Op:          "chat",
	})
	if err != nil {
		return Result{SessionID: id}, fmt.Errorf("generate answer: %w", err)
	}

	s.sessions.Append(id, domain.Turn{Role: domain.RoleAssistant, Content: reply})

	s.logger.Debug("answer generated",
		zap.String("session_id", id),
		zap.Int("context_chunks", len(chunks)),
	)
	return Result{Response: reply, SessionID: id}, nil
}

// ClearSession drops the conversation history for the given session id.
func (s *Service) ClearSession(sessionID string) {
	s.sessions.Clear(sessionID)
}
