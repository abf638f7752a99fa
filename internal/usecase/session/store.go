// Package session keeps per-conversation history in memory. History is
// process-local; restarting the server starts every conversation fresh.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/profscope/profscope/internal/domain"
)

// Store holds conversation turns keyed by session id. Safe for concurrent
// use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Turn
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string][]domain.Turn)}
}

// GetOrCreate resolves a session id. An empty id mints a fresh one; a
// caller-supplied id is used as-is so clients can resume a conversation.
func (s *Store) GetOrCreate(id string) string {
	if id == "" {
		id = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = nil
	}
	return id
}

// History returns a copy of the session's turns, oldest first. Unknown
// sessions have empty history.
func (s *Store) History(id string) []domain.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.sessions[id]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to the session's history.
func (s *Store) Append(id string, turns ...domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = append(s.sessions[id], turns...)
}

// Clear drops the session's history. The id stays valid for further turns.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports how many sessions currently hold history.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
