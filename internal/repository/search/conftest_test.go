package search

import (
	"context"
	"testing"

	"github.com/kazdex/bazaar/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchTextFn     func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchFilteredFn func(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchFiltered(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error) {
	if m.searchFilteredFn != nil {
		return m.searchFilteredFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "bazaar:")
	return repo, ms
}
