package core

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure independently of the storage driver that
// produced it. Adapters translate driver errors into kinds at the boundary;
// callers branch on kinds (or the Is* helpers) instead of driver types.
type Kind int

const (
	// KindOther is the zero kind for unclassified failures.
	KindOther Kind = iota
	// KindConnection covers dial and handle-access failures.
	KindConnection
	// KindAuthentication covers rejected credentials. A subcase of
	// connection failure surfaced with a distinct user-facing hint.
	KindAuthentication
	// KindTimeout covers connect and operation timeouts.
	KindTimeout
	// KindUnavailable covers temporary server-side unavailability.
	KindUnavailable
	// KindNotFound covers missing documents or paths.
	KindNotFound
	// KindExists covers create collisions with existing documents.
	KindExists
	// KindValidation covers caller input rejected before any I/O.
	KindValidation
)

// String returns a short human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection failed"
	case KindAuthentication:
		return "authentication failed, check username and password"
	case KindTimeout:
		return "operation timed out"
	case KindUnavailable:
		return "service temporarily unavailable"
	case KindNotFound:
		return "not found"
	case KindExists:
		return "already exists"
	case KindValidation:
		return "invalid input"
	default:
		return "operation failed"
	}
}

// Error is the kind-tagged error wrapper used across couchmesh. Op names
// the attempted operation ("connect", "history.add"), Resource the target
// it ran against (endpoint, document key).
type Error struct {
	Kind     Kind
	Op       string
	Resource string
	Err      error
}

// Error renders "op: kind label (resource): cause", omitting empty parts.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Resource != "" {
		b.WriteString(" (")
		b.WriteString(e.Resource)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// E constructs a kind-tagged error wrapping err with operation context.
func E(kind Kind, op, resource string, err error) *Error {
	return &Error{Kind: kind, Op: op, Resource: resource, Err: err}
}

// Errorf is a convenience constructing a kind-tagged error from a format string.
func Errorf(kind Kind, op, resource, format string, args ...any) *Error {
	return E(kind, op, resource, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain, or KindOther
// when the chain carries no classified error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindOther
}

// IsNotFound reports whether err is a missing-document failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsExists reports whether err is a create collision.
func IsExists(err error) bool { return KindOf(err) == KindExists }

// IsAuthentication reports whether err is a rejected-credentials failure.
func IsAuthentication(err error) bool { return KindOf(err) == KindAuthentication }

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsValidation reports whether err was rejected before any I/O.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsTransient reports whether err is worth retrying: timeouts and temporary
// unavailability. This is the default retry predicate.
func IsTransient(err error) bool {
	k := KindOf(err)
	return k == KindTimeout || k == KindUnavailable
}
