package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/couchmesh/core"
)

// FakeDialer scripts dial outcomes and records every attempt.
type FakeDialer struct {
	mu      sync.Mutex
	dialErr error
	dials   []core.Credentials
	handles []*FakeHandle
}

var _ core.Dialer = (*FakeDialer)(nil)

// NewFakeDialer creates a dialer whose dials all succeed until FailWith.
func NewFakeDialer() *FakeDialer { return &FakeDialer{} }

// FailWith makes every subsequent dial fail with err; nil restores success.
func (d *FakeDialer) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialErr = err
}

// Dial records the attempt and returns a fresh FakeHandle or the scripted error.
func (d *FakeDialer) Dial(_ context.Context, creds core.Credentials, _ time.Duration) (core.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, creds)
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	h := NewFakeHandle()
	d.handles = append(d.handles, h)
	return h, nil
}

// DialCount returns how many dials were attempted.
func (d *FakeDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

// Handles returns every handle handed out so far.
func (d *FakeDialer) Handles() []*FakeHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeHandle(nil), d.handles...)
}

// FakeHandle is an in-memory core.Handle. Collections are shared per
// keyspace so separate bindings observe the same documents.
type FakeHandle struct {
	mu          sync.Mutex
	closeErr    error
	closes      int
	collections map[string]*FakeCollection
}

var _ core.Handle = (*FakeHandle)(nil)

// NewFakeHandle creates an open handle with no collections yet.
func NewFakeHandle() *FakeHandle {
	return &FakeHandle{collections: map[string]*FakeCollection{}}
}

// FailCloseWith makes Close return err (the close is still counted).
func (h *FakeHandle) FailCloseWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeErr = err
}

// Collection returns the shared fake collection for the keyspace.
func (h *FakeHandle) Collection(bucket, scope, collection string) (core.Collection, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	keyspace := bucket + "." + scope + "." + collection
	col, ok := h.collections[keyspace]
	if !ok {
		col = NewFakeCollection()
		h.collections[keyspace] = col
	}
	return col, nil
}

// Close records the call and returns the scripted error, if any.
func (h *FakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return h.closeErr
}

// CloseCount returns how many times Close was called.
func (h *FakeHandle) CloseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closes
}

// Closed reports whether Close was called at least once.
func (h *FakeHandle) Closed() bool { return h.CloseCount() > 0 }

// FakeCollection implements core.Collection over a JSON-encoded document map
// with the same error kinds the real driver produces. Error injection and a
// pre-insert hook allow scripting failure and race scenarios.
type FakeCollection struct {
	mu   sync.Mutex
	docs map[string][]byte

	failNext error
	// BeforeInsert runs just before each Insert while the lock is NOT held,
	// letting tests interleave a competing writer.
	BeforeInsert func()

	gets, inserts, upserts, removes, appends int
}

var _ core.Collection = (*FakeCollection)(nil)

// NewFakeCollection creates an empty collection.
func NewFakeCollection() *FakeCollection {
	return &FakeCollection{docs: map[string][]byte{}}
}

// FailNextWith makes the next operation fail with err.
func (c *FakeCollection) FailNextWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = err
}

func (c *FakeCollection) takeFailure() error {
	err := c.failNext
	c.failNext = nil
	return err
}

// Get decodes the stored document into valuePtr.
func (c *FakeCollection) Get(_ context.Context, key string, valuePtr any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if err := c.takeFailure(); err != nil {
		return err
	}
	raw, ok := c.docs[key]
	if !ok {
		return core.Errorf(core.KindNotFound, "get", key, "document not found")
	}
	return json.Unmarshal(raw, valuePtr)
}

// Insert stores the document, failing with KindExists when present.
func (c *FakeCollection) Insert(_ context.Context, key string, value any) error {
	if fn := c.BeforeInsert; fn != nil {
		fn()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inserts++
	if err := c.takeFailure(); err != nil {
		return err
	}
	if _, ok := c.docs[key]; ok {
		return core.Errorf(core.KindExists, "insert", key, "document exists")
	}
	return c.storeLocked(key, value)
}

// Upsert stores or replaces the document.
func (c *FakeCollection) Upsert(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upserts++
	if err := c.takeFailure(); err != nil {
		return err
	}
	return c.storeLocked(key, value)
}

// Remove deletes the document, failing with KindNotFound when absent.
func (c *FakeCollection) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removes++
	if err := c.takeFailure(); err != nil {
		return err
	}
	if _, ok := c.docs[key]; !ok {
		return core.Errorf(core.KindNotFound, "remove", key, "document not found")
	}
	delete(c.docs, key)
	return nil
}

// ArrayAppend appends to the top-level array field at path and applies the
// set fields, failing with KindNotFound when the document is absent.
func (c *FakeCollection) ArrayAppend(_ context.Context, key, path string, values []any, set map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appends++
	if err := c.takeFailure(); err != nil {
		return err
	}
	raw, ok := c.docs[key]
	if !ok {
		return core.Errorf(core.KindNotFound, "array-append", key, "document not found")
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("corrupt fake document %q: %w", key, err)
	}
	arr, _ := doc[path].([]any)
	doc[path] = append(arr, values...)
	for field, value := range set {
		doc[field] = value
	}
	return c.storeLocked(key, doc)
}

func (c *FakeCollection) storeLocked(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.docs[key] = raw
	return nil
}

// Has reports whether a document exists for key.
func (c *FakeCollection) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.docs[key]
	return ok
}

// AppendCount returns how many ArrayAppend calls ran.
func (c *FakeCollection) AppendCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appends
}

// InsertCount returns how many Insert calls ran.
func (c *FakeCollection) InsertCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inserts
}
