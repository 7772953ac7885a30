package couchbase

import (
	"context"
	"time"

	gocb "github.com/couchbase/gocb/v2"
	"github.com/couchbase/gocb/v2/search"
	"github.com/couchbase/gocb/v2/vector"

	"github.com/hupe1980/couchmesh/core"
)

// Dialer opens gocb clusters. The zero value is ready to use.
type Dialer struct{}

// Dial connects to the endpoint and waits until the cluster is ready to
// serve requests, so connect failures surface here rather than on the first
// KV call. The connect timeout bounds both phases.
func (Dialer) Dial(ctx context.Context, creds core.Credentials, connectTimeout time.Duration) (core.Handle, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	cluster, err := gocb.Connect(creds.Endpoint, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: creds.Username,
			Password: creds.Password,
		},
		TimeoutsConfig: gocb.TimeoutsConfig{
			ConnectTimeout: connectTimeout,
		},
	})
	if err != nil {
		return nil, wrapDial(err, creds.Endpoint)
	}

	if err := cluster.WaitUntilReady(connectTimeout, nil); err != nil {
		_ = cluster.Close(nil)
		return nil, wrapDial(err, creds.Endpoint)
	}

	return &Handle{cluster: cluster}, nil
}

// Handle wraps a connected *gocb.Cluster. Beyond the core.Handle contract it
// implements core.QueryRunner, core.Searcher and core.VectorIndex, so the
// query / search / vector adapters run through the same managed connection.
type Handle struct {
	cluster *gocb.Cluster
}

var (
	_ core.Handle      = (*Handle)(nil)
	_ core.QueryRunner = (*Handle)(nil)
	_ core.Searcher    = (*Handle)(nil)
	_ core.VectorIndex = (*Handle)(nil)
)

// Collection resolves the keyspace. Empty scope or collection select the
// bucket defaults.
func (h *Handle) Collection(bucket, scope, collection string) (core.Collection, error) {
	if bucket == "" {
		return nil, core.Errorf(core.KindValidation, "collection", "", "bucket is required")
	}
	if scope == "" {
		scope = "_default"
	}
	if collection == "" {
		collection = "_default"
	}
	col := h.cluster.Bucket(bucket).Scope(scope).Collection(collection)
	return &Collection{col: col, keyspace: bucket + "." + scope + "." + collection}, nil
}

// Close shuts the cluster connection down.
func (h *Handle) Close() error {
	return wrap(h.cluster.Close(nil), "close", "")
}

// Query executes a SQL++ statement with named parameters and drains all rows.
func (h *Handle) Query(ctx context.Context, statement string, named map[string]any) ([]map[string]any, error) {
	res, err := h.cluster.Query(statement, &gocb.QueryOptions{
		NamedParameters: named,
		Context:         ctx,
	})
	if err != nil {
		return nil, wrap(err, "query", statement)
	}

	var rows []map[string]any
	for res.Next() {
		var row map[string]any
		if err := res.Row(&row); err != nil {
			return nil, wrap(err, "query", statement)
		}
		rows = append(rows, row)
	}
	if err := res.Err(); err != nil {
		return nil, wrap(err, "query", statement)
	}
	return rows, nil
}

// Search runs a full-text match query against the named index.
func (h *Handle) Search(ctx context.Context, index, term string, limit int) ([]core.SearchHit, error) {
	res, err := h.cluster.SearchQuery(index, search.NewMatchQuery(term), &gocb.SearchOptions{
		Limit:   uint32(limit),
		Fields:  []string{"*"},
		Context: ctx,
	})
	if err != nil {
		return nil, wrap(err, "search", index)
	}
	return drainSearch(res, index)
}

// VectorSearch runs a nearest-neighbor query over the embedding field of the
// named index.
func (h *Handle) VectorSearch(ctx context.Context, index, field string, vec []float32, limit int) ([]core.SearchHit, error) {
	query := vector.NewQuery(field, vec).NumCandidates(uint32(limit))
	req := gocb.SearchRequest{
		VectorSearch: vector.NewSearch([]*vector.Query{query}, nil),
	}
	res, err := h.cluster.Search(index, req, &gocb.SearchOptions{
		Limit:   uint32(limit),
		Fields:  []string{"*"},
		Context: ctx,
	})
	if err != nil {
		return nil, wrap(err, "vector-search", index)
	}
	return drainSearch(res, index)
}

func drainSearch(res *gocb.SearchResult, index string) ([]core.SearchHit, error) {
	var hits []core.SearchHit
	for res.Next() {
		row := res.Row()
		hit := core.SearchHit{ID: row.ID, Score: row.Score}
		var fields map[string]any
		if err := row.Fields(&fields); err == nil {
			hit.Fields = fields
		}
		hits = append(hits, hit)
	}
	if err := res.Err(); err != nil {
		return nil, wrap(err, "search", index)
	}
	return hits, nil
}

// Collection adapts a *gocb.Collection to the core.Collection contract.
type Collection struct {
	col      *gocb.Collection
	keyspace string
}

var _ core.Collection = (*Collection)(nil)

// Get decodes the document at key into valuePtr.
func (c *Collection) Get(ctx context.Context, key string, valuePtr any) error {
	res, err := c.col.Get(key, &gocb.GetOptions{Context: ctx})
	if err != nil {
		return wrap(err, "get", c.res(key))
	}
	return wrap(res.Content(valuePtr), "get", c.res(key))
}

// Insert creates the document; it fails with KindExists when present.
func (c *Collection) Insert(ctx context.Context, key string, value any) error {
	_, err := c.col.Insert(key, value, &gocb.InsertOptions{Context: ctx})
	return wrap(err, "insert", c.res(key))
}

// Upsert creates or replaces the document.
func (c *Collection) Upsert(ctx context.Context, key string, value any) error {
	_, err := c.col.Upsert(key, value, &gocb.UpsertOptions{Context: ctx})
	return wrap(err, "upsert", c.res(key))
}

// Remove deletes the document; it fails with KindNotFound when absent.
func (c *Collection) Remove(ctx context.Context, key string) error {
	_, err := c.col.Remove(key, &gocb.RemoveOptions{Context: ctx})
	return wrap(err, "remove", c.res(key))
}

// ArrayAppend appends values to the array at path and applies set as field
// upserts within a single sub-document mutation.
func (c *Collection) ArrayAppend(ctx context.Context, key, path string, values []any, set map[string]any) error {
	specs := make([]gocb.MutateInSpec, 0, len(set)+1)
	specs = append(specs, gocb.ArrayAppendSpec(path, values, &gocb.ArrayAppendSpecOptions{HasMultiple: true}))
	for field, value := range set {
		specs = append(specs, gocb.UpsertSpec(field, value, nil))
	}
	_, err := c.col.MutateIn(key, specs, &gocb.MutateInOptions{Context: ctx})
	return wrap(err, "array-append", c.res(key))
}

func (c *Collection) res(key string) string { return c.keyspace + "/" + key }
