// Package core provides the foundational domain types and contracts used by
// couchmesh. It defines the core abstractions for:
//
//   - Credentials (the connection fingerprint driving handle reuse)
//   - Messages and the persisted SessionDocument shape for chat history
//   - The storage collaborator contracts (Dialer, Handle, Collection plus
//     the query / search / vector extensions)
//   - Kind-tagged errors shared by every adapter package
//   - A Clock abstraction so time-driven behavior is testable
//
// The package intentionally keeps implementation concerns (the Couchbase
// driver, concrete stores, the connection manager) out of scope, exposing
// small interfaces to enable custom backends and extensions.
package core
