// Package couchmesh adapts Couchbase's key-value, query, full-text-search
// and vector-search services for embedding hosts (workflow engines, agent
// frameworks) that need document CRUD and per-session chat memory. Most
// applications interact with this package by:
//  1. Creating a Client via New() with a credential source (optionally
//     overriding timeouts, the dialer, clock, logger or retry policy)
//  2. Binding stores and operations to a bucket/scope/collection keyspace
//     (History, KV, Vector) or issuing Query / Search calls directly
//  3. Letting the client reuse one managed handle underneath: it is dialed
//     lazily, cached while the credential tuple is unchanged, and closed
//     automatically after the idle timeout
//
// The façade delegates lifecycle concerns to connection.Manager while
// keeping setup and usage ergonomics concise. All defaults are safe for
// local development; production deployments typically supply a structured
// logger and a dial retry policy.
package couchmesh

import (
	"context"
	"time"

	"github.com/hupe1980/couchmesh/connection"
	"github.com/hupe1980/couchmesh/core"
	"github.com/hupe1980/couchmesh/couchbase"
	"github.com/hupe1980/couchmesh/history"
	"github.com/hupe1980/couchmesh/kv"
	"github.com/hupe1980/couchmesh/logging"
	"github.com/hupe1980/couchmesh/query"
	"github.com/hupe1980/couchmesh/retry"
	"github.com/hupe1980/couchmesh/search"
	"github.com/hupe1980/couchmesh/vector"
)

// Options configures the Client.
type Options struct {
	// Dialer opens handles; defaults to the gocb-backed couchbase.Dialer.
	Dialer core.Dialer
	// ConnectTimeout bounds each dial attempt.
	ConnectTimeout time.Duration
	// IdleTimeout closes the managed handle after inactivity.
	IdleTimeout time.Duration
	// Clock drives idle eviction; tests inject a fake.
	Clock core.Clock
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// DialRetry, when non-nil, wraps dial attempts in a retry policy.
	DialRetry *retry.Retrier
}

// Client is the high-level façade aggregating the connection manager and
// the store constructors. It is safe for concurrent use.
type Client struct {
	opts    Options
	manager *connection.Manager
}

// New creates a Client with optional overrides. Nothing is dialed until the
// first operation needs a handle.
func New(source connection.CredentialSource, optFns ...func(o *Options)) *Client {
	opts := Options{
		Dialer:         couchbase.Dialer{},
		ConnectTimeout: connection.DefaultConnectTimeout,
		IdleTimeout:    connection.DefaultIdleTimeout,
		Clock:          core.RealClock{},
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	manager := connection.NewManager(opts.Dialer, source, func(o *connection.Options) {
		o.ConnectTimeout = opts.ConnectTimeout
		o.IdleTimeout = opts.IdleTimeout
		o.Clock = opts.Clock
		o.Logger = opts.Logger
		o.DialRetry = opts.DialRetry
	})

	return &Client{opts: opts, manager: manager}
}

// Manager exposes the underlying connection manager (observers, Close).
func (c *Client) Manager() *connection.Manager { return c.manager }

// Collection acquires the managed handle and binds the keyspace.
func (c *Client) Collection(ctx context.Context, bucket, scope, collection string) (core.Collection, error) {
	h, err := c.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return h.Collection(bucket, scope, collection)
}

// History returns a chat-history store bound to the keyspace.
func (c *Client) History(ctx context.Context, bucket, scope, collection string) (*history.Store, error) {
	col, err := c.Collection(ctx, bucket, scope, collection)
	if err != nil {
		return nil, err
	}
	return history.NewStore(col, func(o *history.Options) { o.Logger = c.opts.Logger }), nil
}

// KV returns document CRUD operations bound to the keyspace.
func (c *Client) KV(ctx context.Context, bucket, scope, collection string) (*kv.Store, error) {
	col, err := c.Collection(ctx, bucket, scope, collection)
	if err != nil {
		return nil, err
	}
	return kv.New(col), nil
}

// Query runs a SQL++ statement through the managed handle.
func (c *Client) Query(ctx context.Context, statement string, named map[string]any) ([]map[string]any, error) {
	h, err := c.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	runner, ok := h.(core.QueryRunner)
	if !ok {
		return nil, core.Errorf(core.KindOther, "query", "", "handle does not support queries")
	}
	return query.New(runner).Execute(ctx, statement, named)
}

// Search runs a full-text match query against the named index.
func (c *Client) Search(ctx context.Context, index, term string, limit int) ([]core.SearchHit, error) {
	h, err := c.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	searcher, ok := h.(core.Searcher)
	if !ok {
		return nil, core.Errorf(core.KindOther, "search", index, "handle does not support search")
	}
	return search.New(searcher, index).Match(ctx, term, limit)
}

// Vector returns a vector store bound to the keyspace and the named
// vector-enabled search index.
func (c *Client) Vector(ctx context.Context, bucket, scope, collection, index string, embedder vector.Embedder) (*vector.Store, error) {
	h, err := c.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	col, err := h.Collection(bucket, scope, collection)
	if err != nil {
		return nil, err
	}
	idx, ok := h.(core.VectorIndex)
	if !ok {
		return nil, core.Errorf(core.KindOther, "vector", index, "handle does not support vector search")
	}
	return vector.NewStore(col, idx, embedder, index, func(o *vector.Options) { o.Logger = c.opts.Logger }), nil
}

// Close releases the cached handle, if any.
func (c *Client) Close() error { return c.manager.Close() }
