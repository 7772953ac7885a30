// Package testutil contains helper fakes and builders used across tests to
// reduce boilerplate: a manually advanced clock whose timers fire on
// Advance, scripted dialer/handle/collection fakes mirroring the error
// kinds of the real driver, and a fluent message builder. These helpers are
// intentionally minimal and avoid adding third-party dependencies. They are
// not intended for production usage.
package testutil
