package core

import (
	"context"
	"time"
)

// Dialer opens handles against an endpoint. Implementations enforce the
// connect timeout themselves; the connection manager passes it through.
type Dialer interface {
	Dial(ctx context.Context, creds Credentials, connectTimeout time.Duration) (Handle, error)
}

// Handle is a live connection to the backing storage service. A handle is
// safe for concurrent use once opened; replacement and closing are owned by
// the connection manager.
type Handle interface {
	// Collection resolves a bucket/scope/collection keyspace for KV
	// operations. Empty scope and collection select the defaults.
	Collection(bucket, scope, collection string) (Collection, error)
	Close() error
}

// Collection exposes the KV primitives the stores are built on. Every
// method returns kind-tagged errors (missing documents are KindNotFound,
// create collisions KindExists).
type Collection interface {
	// Get decodes the document at key into valuePtr.
	Get(ctx context.Context, key string, valuePtr any) error
	Insert(ctx context.Context, key string, value any) error
	Upsert(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
	// ArrayAppend atomically appends values to the array field at path and
	// applies set as full-field upserts in the same mutation, without a
	// separate read. It fails with KindNotFound when the document does not
	// exist yet.
	ArrayAppend(ctx context.Context, key, path string, values []any, set map[string]any) error
}

// QueryRunner executes parameterized SQL++ statements.
type QueryRunner interface {
	Query(ctx context.Context, statement string, named map[string]any) ([]map[string]any, error)
}

// SearchHit is one scored full-text or vector search result.
type SearchHit struct {
	ID     string
	Score  float64
	Fields map[string]any
}

// Searcher runs full-text match queries against a named index.
type Searcher interface {
	Search(ctx context.Context, index, term string, limit int) ([]SearchHit, error)
}

// VectorIndex runs nearest-neighbor queries against a vector-enabled index.
type VectorIndex interface {
	VectorSearch(ctx context.Context, index, field string, vec []float32, limit int) ([]SearchHit, error)
}
