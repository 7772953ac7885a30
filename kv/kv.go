// Package kv exposes the document CRUD passthrough operations on a bound
// collection. Each operation validates its inputs before any I/O and
// otherwise forwards the kind-tagged errors produced by the collection.
package kv

import (
	"context"

	"github.com/hupe1980/couchmesh/core"
)

// Store issues single-call document operations against one collection.
type Store struct {
	col core.Collection
}

// New binds a KV store to the collection.
func New(col core.Collection) *Store {
	return &Store{col: col}
}

// Get returns the document at key decoded into a generic map.
func (s *Store) Get(ctx context.Context, key string) (map[string]any, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := s.col.Get(ctx, key, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Insert creates the document; it fails with KindExists when present.
func (s *Store) Insert(ctx context.Context, key string, doc any) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.col.Insert(ctx, key, doc)
}

// Upsert creates or replaces the document.
func (s *Store) Upsert(ctx context.Context, key string, doc any) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.col.Upsert(ctx, key, doc)
}

// Remove deletes the document; it fails with KindNotFound when absent.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.col.Remove(ctx, key)
}

func validateKey(key string) error {
	if key == "" {
		return core.Errorf(core.KindValidation, "kv", "", "document key is required")
	}
	return nil
}
