package db

import "github.com/kazdex/bazaar/internal/domain/search/filter"

// TextQuery is the input for full-text search with relevance scores.
type TextQuery struct {
	IndexName string

	// Terms are OR-ed together; each term is escaped by the driver.
	Terms []string

	// TextFields restricts the match to the named TEXT fields.
	// Empty means all indexed text fields.
	TextFields []string

	Filter filter.Filter

	// ActiveAt adds a liveness pre-filter: documents whose expires_at
	// is the zero sentinel or strictly greater than this unix second.
	// Zero disables the clause.
	ActiveAt int64

	TopK         int
	ReturnFields []string
}

// FilterQuery is the input for a filter-only fetch, optionally sorted
// by a SORTABLE field.
type FilterQuery struct {
	IndexName string
	Filter    filter.Filter
	ActiveAt  int64

	// UserID restricts results to a single owner when non-empty.
	UserID string

	SortBy   string
	SortDesc bool

	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
