package testutil

import "github.com/hupe1980/couchmesh/core"

// MessageBuilder provides a fluent helper for constructing message slices in
// tests. Example:
//
//	msgs := NewMessageBuilder().User("hi").Assistant("hello").Build()
type MessageBuilder struct {
	msgs []core.Message
}

// NewMessageBuilder creates an empty builder.
func NewMessageBuilder() *MessageBuilder { return &MessageBuilder{} }

// User appends a user message (chainable).
func (b *MessageBuilder) User(content string) *MessageBuilder {
	b.msgs = append(b.msgs, core.Message{Role: "user", Content: content})
	return b
}

// Assistant appends an assistant message (chainable).
func (b *MessageBuilder) Assistant(content string) *MessageBuilder {
	b.msgs = append(b.msgs, core.Message{Role: "assistant", Content: content})
	return b
}

// Build returns the accumulated messages.
func (b *MessageBuilder) Build() []core.Message { return b.msgs }
