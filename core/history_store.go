package core

import "context"

// HistoryStore persists the append-only message log of a chat session.
// Implementations must preserve insertion order, create the backing
// document on first write, and treat a missing session as empty rather
// than an error. Short method names align with other *Store interfaces.
type HistoryStore interface {
	Messages(ctx context.Context, sessionID string) ([]Message, error)
	AddMessages(ctx context.Context, sessionID string, msgs []Message) error
	Clear(ctx context.Context, sessionID string) error
}
