// Package search exposes full-text match queries against a named index as a
// thin passthrough over a core.Searcher.
package search

import (
	"context"

	"github.com/hupe1980/couchmesh/core"
)

// DefaultLimit caps result sets when the caller passes no positive limit.
const DefaultLimit = 10

// Searcher runs match queries through an underlying core.Searcher bound to
// one index.
type Searcher struct {
	searcher core.Searcher
	index    string
}

// New binds a searcher to the index.
func New(searcher core.Searcher, index string) *Searcher {
	return &Searcher{searcher: searcher, index: index}
}

// Match returns up to limit scored hits for the term.
func (s *Searcher) Match(ctx context.Context, term string, limit int) ([]core.SearchHit, error) {
	if s.index == "" {
		return nil, core.Errorf(core.KindValidation, "search", "", "index name is required")
	}
	if term == "" {
		return nil, core.Errorf(core.KindValidation, "search", s.index, "search term is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.searcher.Search(ctx, s.index, term, limit)
}
