// Package logging provides a minimal logging interface and adapters for couchmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the connection manager and stores use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - CouchMeshLogger with contextual helpers (component, session) and
//     domain-specific helpers for connection and storage events
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	client := couchmesh.New(source, func(o *couchmesh.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
