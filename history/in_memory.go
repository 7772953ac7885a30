package history

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/couchmesh/core"
)

// InMemoryStore is a volatile HistoryStore implementation keeping message
// logs in a process local map. It is safe for concurrent access and best
// suited for tests or ephemeral demo hosts. Returned slices are copies to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*core.SessionDocument
}

var _ core.HistoryStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[string]*core.SessionDocument)}
}

// Messages returns a copy of the session's message log, empty when unknown.
func (s *InMemoryStore) Messages(_ context.Context, sessionID string) ([]core.Message, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[sessionID]
	if !ok {
		return []core.Message{}, nil
	}
	msgs := make([]core.Message, len(doc.Messages))
	copy(msgs, doc.Messages)
	return msgs, nil
}

// AddMessages appends msgs, creating the document on first write.
func (s *InMemoryStore) AddMessages(_ context.Context, sessionID string, msgs []core.Message) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[sessionID]
	if !ok {
		doc = &core.SessionDocument{SessionID: sessionID}
		s.docs[sessionID] = doc
	}
	doc.Messages = append(doc.Messages, msgs...)
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// Clear drops the session document; unknown sessions are a no-op.
func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, sessionID)
	return nil
}
