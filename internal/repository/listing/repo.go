package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kazdex/bazaar/internal/db"
	"github.com/kazdex/bazaar/internal/domain"
	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
)

// store is the consumer interface for the listing repository (ISP).
//
//nolint:interfacebloat // listing repo needs hash + index + filtered fetch operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchFiltered(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
}

// Repo implements usecase listing.Repository over hash documents.
type Repo struct {
	store     store
	keyPrefix string
	indexName string
}

// New creates a listing repository.
func New(s store, prefix string) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: KeyPrefixFor(prefix),
		indexName: IndexNameFor(prefix),
	}
}

// EnsureIndex creates the listings FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, prefix string) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		return nil
	}
	if err := r.store.CreateIndex(ctx, IndexDef(prefix)); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + id
}

// Save stores the full listing hash, embedding included when present.
func (r *Repo) Save(ctx context.Context, l *domlisting.Listing) error {
	if err := r.store.HSet(ctx, r.key(l.ID()), l.Fields()); err != nil {
		return fmt.Errorf("hset listing %s: %w", l.ID(), err)
	}
	return nil
}

// Get retrieves a listing by id.
func (r *Repo) Get(ctx context.Context, id string) (domlisting.Listing, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return domlisting.Listing{}, fmt.Errorf("hgetall listing %s: %w", id, err)
	}
	if len(m) == 0 {
		return domlisting.Listing{}, domain.ErrListingNotFound
	}
	return domlisting.FromFields(id, m)
}

// Delete removes a listing document.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("del listing %s: %w", id, err)
	}
	return nil
}

// Exists checks whether a listing document is present.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.key(id))
	if err != nil {
		return false, fmt.Errorf("exists listing %s: %w", id, err)
	}
	return ok, nil
}

// SetEmbedding writes only the embedding field of a stored listing.
func (r *Repo) SetEmbedding(ctx context.Context, id string, vec []float32) error {
	fields := map[string]string{
		domlisting.FieldEmbedding: domlisting.EncodeVector(vec),
	}
	if err := r.store.HSet(ctx, r.key(id), fields); err != nil {
		return fmt.Errorf("hset embedding %s: %w", id, err)
	}
	return nil
}

// ClearEmbedding drops the embedding field so the refresher recomputes it.
func (r *Repo) ClearEmbedding(ctx context.Context, id string) error {
	if err := r.store.HDel(ctx, r.key(id), domlisting.FieldEmbedding); err != nil {
		return fmt.Errorf("hdel embedding %s: %w", id, err)
	}
	return nil
}

// AllIDs returns every stored listing id; used by the embedding backfill.
func (r *Repo) AllIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan listings: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, r.keyPrefix))
	}
	return ids, nil
}

// List fetches a sorted page of listings. Documents that fail schema
// validation are skipped; the caller decides whether to log them.
func (r *Repo) List(
	ctx context.Context, f filter.Filter, userID string, activeAt int64,
	sortBy string, sortDesc bool, offset, limit int,
) ([]domlisting.Listing, int, error) {
	q := &db.FilterQuery{
		IndexName: r.indexName,
		Filter:    f,
		ActiveAt:  activeAt,
		UserID:    userID,
		SortBy:    sortBy,
		SortDesc:  sortDesc,
		Offset:    offset,
		Limit:     limit,
	}

	sr, err := r.store.SearchFiltered(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}

	out := make([]domlisting.Listing, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, r.keyPrefix)
		l, err := domlisting.FromFields(id, entry.Fields)
		if err != nil {
			continue
		}
		out = append(out, l)
	}
	return out, sr.Total, nil
}
