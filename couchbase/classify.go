package couchbase

import (
	"context"
	"errors"

	gocb "github.com/couchbase/gocb/v2"

	"github.com/hupe1980/couchmesh/core"
)

// classify maps a gocb error chain onto a core error kind. Classification
// runs on errors.Is so wrapped and multi-cause chains resolve correctly.
func classify(err error) core.Kind {
	switch {
	case errors.Is(err, gocb.ErrDocumentNotFound) || errors.Is(err, gocb.ErrPathNotFound):
		return core.KindNotFound
	case errors.Is(err, gocb.ErrDocumentExists) || errors.Is(err, gocb.ErrPathExists):
		return core.KindExists
	case errors.Is(err, gocb.ErrAuthenticationFailure):
		return core.KindAuthentication
	case errors.Is(err, gocb.ErrTimeout) ||
		errors.Is(err, gocb.ErrAmbiguousTimeout) ||
		errors.Is(err, gocb.ErrUnambiguousTimeout) ||
		errors.Is(err, context.DeadlineExceeded):
		return core.KindTimeout
	case errors.Is(err, gocb.ErrTemporaryFailure) || errors.Is(err, gocb.ErrServiceNotAvailable):
		return core.KindUnavailable
	default:
		return core.KindOther
	}
}

// wrap tags err with its classified kind plus operation context. Nil passes
// through untouched.
func wrap(err error, op, resource string) error {
	if err == nil {
		return nil
	}
	return core.E(classify(err), op, resource, err)
}

// wrapDial is wrap for dial failures: anything unclassified is still a
// connection failure from the caller's point of view.
func wrapDial(err error, endpoint string) error {
	if err == nil {
		return nil
	}
	kind := classify(err)
	if kind == core.KindOther {
		kind = core.KindConnection
	}
	return core.E(kind, "connect", endpoint, err)
}
