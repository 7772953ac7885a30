package history

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/couchmesh/core"
	"github.com/hupe1980/couchmesh/logging"
)

// KeyPrefix namespaces history documents so no other store collides on the
// same session id.
const KeyPrefix = "chat_history::"

// Key derives the document key for a session id.
func Key(sessionID string) string { return KeyPrefix + sessionID }

// Options configure a Store.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Store persists one append-only message log per session in a collection
// satisfying core.Collection. Appends on the same session are serialized
// with an in-process per-session mutex; see AddMessages for the
// cross-process story.
type Store struct {
	col    core.Collection
	logger logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ core.HistoryStore = (*Store)(nil)

// NewStore creates a history store over the given collection.
func NewStore(col core.Collection, optFns ...func(o *Options)) *Store {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{col: col, logger: opts.Logger, locks: map[string]*sync.Mutex{}}
}

// Messages returns the session's messages in insertion order. A missing
// document yields an empty slice, not an error; any other storage failure
// propagates.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]core.Message, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	var doc core.SessionDocument
	if err := s.col.Get(ctx, Key(sessionID), &doc); err != nil {
		if core.IsNotFound(err) {
			return []core.Message{}, nil
		}
		return nil, err
	}
	if doc.Messages == nil {
		return []core.Message{}, nil
	}
	return doc.Messages, nil
}

// AddMessages appends msgs to the session's log. The primary path is a
// single atomic array append that also touches the updatedAt field; it only
// succeeds on an existing document. When the document does not exist yet the
// store falls back to read-concat-insert, creating it. Two first writers in
// the same process are serialized by the per-session mutex; a fallback
// create that loses a cross-process race (the document appears between the
// failed append and the insert) retries the append, so neither writer's
// messages are dropped.
func (s *Store) AddMessages(ctx context.Context, sessionID string, msgs []core.Message) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	unlock := s.lock(sessionID)
	defer unlock()

	key := Key(sessionID)
	err := s.append(ctx, key, msgs)
	if err == nil {
		return nil
	}
	if !core.IsNotFound(err) {
		return err
	}

	// First write for this session: materialize the document.
	s.logger.Debug("creating history document", "key", key)
	current, err := s.Messages(ctx, sessionID)
	if err != nil {
		return err
	}
	doc := core.SessionDocument{
		SessionID: sessionID,
		Messages:  append(current, msgs...),
		UpdatedAt: time.Now().UTC(),
	}
	err = s.col.Insert(ctx, key, doc)
	if err == nil {
		return nil
	}
	if core.IsExists(err) {
		// Another writer created the document first; append after all.
		return s.append(ctx, key, msgs)
	}
	return err
}

// Clear removes the session document. Clearing an unknown session is a no-op.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.col.Remove(ctx, Key(sessionID)); err != nil && !core.IsNotFound(err) {
		return err
	}
	return nil
}

func (s *Store) append(ctx context.Context, key string, msgs []core.Message) error {
	values := make([]any, len(msgs))
	for i, m := range msgs {
		values[i] = m
	}
	return s.col.ArrayAppend(ctx, key, "messages", values, map[string]any{
		"updatedAt": time.Now().UTC(),
	})
}

// lock returns the unlock func for the session's mutex, creating it lazily.
func (s *Store) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func validateSessionID(id string) error {
	if id == "" {
		return core.Errorf(core.KindValidation, "history", "", "session id is required")
	}
	return nil
}
