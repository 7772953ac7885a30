// Package history houses concrete implementations of core.HistoryStore, the
// append-only per-session message log used for chat memory. The interface
// itself (and the Message / SessionDocument shapes) live in the core package
// to centralize domain contracts; keeping only implementations here prevents
// higher level packages from depending on concrete storage.
//
// Store persists logs in a Couchbase collection through the core.Collection
// contract; InMemoryStore is a volatile counterpart for tests and demos.
package history
