package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/couchmesh/core"
	"github.com/hupe1980/couchmesh/internal/testutil"
)

// fakeEmbedder returns a deterministic vector per text (its length).
type fakeEmbedder struct {
	calls int
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

// fakeIndex echoes back the ids it was seeded with, best first.
type fakeIndex struct {
	ids   []string
	index string
	field string
	limit int
}

func (f *fakeIndex) VectorSearch(_ context.Context, index, field string, _ []float32, limit int) ([]core.SearchHit, error) {
	f.index = index
	f.field = field
	f.limit = limit
	hits := make([]core.SearchHit, 0, len(f.ids))
	for i, id := range f.ids {
		if i >= limit {
			break
		}
		hits = append(hits, core.SearchHit{ID: id, Score: 1 - float64(i)/10})
	}
	return hits, nil
}

func TestStore_AddPersistsEmbeddedDocuments(t *testing.T) {
	col := testutil.NewFakeCollection()
	embedder := &fakeEmbedder{}
	store := NewStore(col, &fakeIndex{}, embedder, "docs-index")

	ids, err := store.Add(context.Background(), []string{"alpha", "beta"}, []map[string]any{
		{"source": "a"},
		{"source": "b"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, 1, embedder.calls)

	var doc Document
	require.NoError(t, col.Get(context.Background(), ids[0], &doc))
	assert.Equal(t, "alpha", doc.Text)
	assert.Equal(t, []float32{5, 1}, doc.Embedding)
	assert.Equal(t, "a", doc.Metadata["source"])
}

func TestStore_AddValidatesMetadataLength(t *testing.T) {
	store := NewStore(testutil.NewFakeCollection(), &fakeIndex{}, &fakeEmbedder{}, "docs-index")

	_, err := store.Add(context.Background(), []string{"alpha", "beta"}, []map[string]any{{"only": "one"}})
	assert.True(t, core.IsValidation(err))
}

func TestStore_SearchHydratesMatches(t *testing.T) {
	col := testutil.NewFakeCollection()
	idx := &fakeIndex{}
	store := NewStore(col, idx, &fakeEmbedder{}, "docs-index")
	ctx := context.Background()

	ids, err := store.Add(ctx, []string{"alpha", "beta"}, nil)
	require.NoError(t, err)
	idx.ids = ids

	matches, err := store.Search(ctx, "alp", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "alpha", matches[0].Text)
	assert.Equal(t, "beta", matches[1].Text)
	assert.Greater(t, matches[0].Score, matches[1].Score)
	assert.Equal(t, "docs-index", idx.index)
	assert.Equal(t, "embedding", idx.field)
}

func TestStore_SearchDefaultsLimit(t *testing.T) {
	idx := &fakeIndex{}
	store := NewStore(testutil.NewFakeCollection(), idx, &fakeEmbedder{}, "docs-index")

	_, err := store.Search(context.Background(), "query", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, idx.limit)
}

func TestStore_SearchRequiresQuery(t *testing.T) {
	store := NewStore(testutil.NewFakeCollection(), &fakeIndex{}, &fakeEmbedder{}, "docs-index")
	_, err := store.Search(context.Background(), "", 3)
	assert.True(t, core.IsValidation(err))
}

func TestStore_RemoveUnknownIsNoOp(t *testing.T) {
	store := NewStore(testutil.NewFakeCollection(), &fakeIndex{}, &fakeEmbedder{}, "docs-index")
	assert.NoError(t, store.Remove(context.Background(), "ghost"))
}
