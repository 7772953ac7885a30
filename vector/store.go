package vector

import (
	"context"
	"fmt"

	"github.com/hupe1980/couchmesh/core"
	"github.com/hupe1980/couchmesh/logging"
)

// DefaultLimit caps similarity results when the caller passes no positive limit.
const DefaultLimit = 4

// Embedder turns texts into embedding vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is the persisted shape of one stored text.
type Document struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Match is one scored similarity result, hydrated with the stored text and
// metadata when the backing document still exists.
type Match struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]any
}

// Options configure a Store.
type Options struct {
	// Field is the indexed embedding field name inside stored documents.
	Field string
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Store embeds and persists documents, and answers similarity queries
// against a vector-enabled search index.
type Store struct {
	col      core.Collection
	idx      core.VectorIndex
	embedder Embedder
	index    string
	opts     Options
}

// NewStore binds a vector store to the collection, the vector index runner
// and the named index.
func NewStore(col core.Collection, idx core.VectorIndex, embedder Embedder, index string, optFns ...func(o *Options)) *Store {
	opts := Options{Field: "embedding", Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{col: col, idx: idx, embedder: embedder, index: index, opts: opts}
}

// Add embeds texts and upserts one document per text, returning the
// generated document ids in input order. metadata may be nil or must match
// texts in length.
func (s *Store) Add(ctx context.Context, texts []string, metadata []map[string]any) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if metadata != nil && len(metadata) != len(texts) {
		return nil, core.Errorf(core.KindValidation, "vector.add", s.index, "metadata length must match texts")
	}

	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, core.E(core.KindOther, "vector.add", s.index,
			fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts)))
	}

	ids := make([]string, len(texts))
	for i, text := range texts {
		doc := Document{ID: core.NewID(), Text: text, Embedding: vecs[i]}
		if metadata != nil {
			doc.Metadata = metadata[i]
		}
		if err := s.col.Upsert(ctx, doc.ID, doc); err != nil {
			return nil, err
		}
		ids[i] = doc.ID
	}
	s.opts.Logger.Debug("stored vector documents", "count", len(ids), "index", s.index)
	return ids, nil
}

// Search embeds the query and returns the nearest stored documents.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	if query == "" {
		return nil, core.Errorf(core.KindValidation, "vector.search", s.index, "query is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, core.E(core.KindOther, "vector.search", s.index,
			fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs)))
	}

	hits, err := s.idx.VectorSearch(ctx, s.index, s.opts.Field, vecs[0], limit)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(hits))
	for _, hit := range hits {
		m := Match{ID: hit.ID, Score: hit.Score}
		var doc Document
		switch err := s.col.Get(ctx, hit.ID, &doc); {
		case err == nil:
			m.Text = doc.Text
			m.Metadata = doc.Metadata
		case !core.IsNotFound(err):
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Remove deletes a stored document by id; unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	if id == "" {
		return core.Errorf(core.KindValidation, "vector.remove", s.index, "document id is required")
	}
	if err := s.col.Remove(ctx, id); err != nil && !core.IsNotFound(err) {
		return err
	}
	return nil
}
