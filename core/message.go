package core

import (
	"time"

	"github.com/google/uuid"
)

// Message is one chat-history entry. Stores treat contents as opaque; only
// insertion order matters.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionDocument is the persisted shape backing one session's history.
// Messages preserve insertion order; the document is created on first write.
type SessionDocument struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewID generates a new unique identifier for generated documents.
func NewID() string { return uuid.NewString() }
