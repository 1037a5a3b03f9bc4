// Package search adapts FT.SEARCH retrieval into ranking candidates. Each
// method contributes one relevance signal; the fusion layer combines them.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kazdex/bazaar/internal/db"
	"github.com/kazdex/bazaar/internal/domain/geo"
	"github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/candidate"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
	"github.com/kazdex/bazaar/internal/domain/vector"
	replisting "github.com/kazdex/bazaar/internal/repository/listing"
)

// DefaultScanLimit caps how many embedded documents a semantic scan pulls
// before computing similarities client-side.
const DefaultScanLimit = 500

// textFields are the TEXT-indexed fields a lexical query matches against.
var textFields = []string{listing.FieldTitle, listing.FieldDescription}

// documentFields is every stored field except the embedding blob.
var documentFields = []string{
	listing.FieldTitle,
	listing.FieldDescription,
	listing.FieldPrice,
	listing.FieldTags,
	listing.FieldCity,
	listing.FieldCategory,
	listing.FieldFeatures,
	listing.FieldUserID,
	listing.FieldLocation,
	listing.FieldImages,
	listing.FieldPostedAt,
	listing.FieldExpiresAt,
}

// store is the consumer interface for search retrieval (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchFiltered(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
}

// Repo implements usecase search retrieval.
type Repo struct {
	store     store
	keyPrefix string
	indexName string
	scanLimit int
}

// New creates a search repository.
func New(s store, prefix string) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: replisting.KeyPrefixFor(prefix),
		indexName: replisting.IndexNameFor(prefix),
		scanLimit: DefaultScanLimit,
	}
}

// WithScanLimit overrides the semantic scan cap.
func (r *Repo) WithScanLimit(n int) *Repo {
	if n > 0 {
		r.scanLimit = n
	}
	return r
}

// SearchText retrieves candidates by full-text relevance. When the filter
// carries a geo clause the distance signal is filled in as well, so a single
// round-trip serves the composite lexical+proximity ranking.
func (r *Repo) SearchText(
	ctx context.Context, terms []string, f filter.Filter, activeAt int64, topK int,
) ([]candidate.Candidate, error) {
	q := &db.TextQuery{
		IndexName:    r.indexName,
		Terms:        terms,
		TextFields:   textFields,
		Filter:       f,
		ActiveAt:     activeAt,
		TopK:         topK,
		ReturnFields: documentFields,
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search text: %w", err)
	}

	cands := make([]candidate.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		c := candidate.Candidate{
			ID:      strings.TrimPrefix(entry.Key, r.keyPrefix),
			Fields:  entry.Fields,
			Lexical: candidate.Float(entry.Score),
		}
		if circle := f.Circle(); circle != nil {
			if d, ok := distanceTo(entry.Fields, circle.Center); ok {
				c.DistanceMeters = candidate.Float(d)
			}
		}
		cands = append(cands, c)
	}
	return cands, nil
}

// SearchNear retrieves candidates inside the filter's geo circle and fills
// in the distance signal. The filter must carry a geo clause.
func (r *Repo) SearchNear(
	ctx context.Context, f filter.Filter, activeAt int64, topK int,
) ([]candidate.Candidate, error) {
	circle := f.Circle()
	if circle == nil {
		return nil, fmt.Errorf("search near: geo clause is required")
	}

	q := &db.FilterQuery{
		IndexName:    r.indexName,
		Filter:       f,
		ActiveAt:     activeAt,
		Limit:        topK,
		ReturnFields: documentFields,
	}

	sr, err := r.store.SearchFiltered(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search near: %w", err)
	}

	cands := make([]candidate.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		c := candidate.Candidate{
			ID:     strings.TrimPrefix(entry.Key, r.keyPrefix),
			Fields: entry.Fields,
		}
		if d, ok := distanceTo(entry.Fields, circle.Center); ok {
			c.DistanceMeters = candidate.Float(d)
		}
		cands = append(cands, c)
	}
	return cands, nil
}

// SearchSemantic scans up to the configured cap of filtered documents,
// decodes their stored embeddings and computes cosine similarity against the
// query vector client-side. Non-geo clauses apply server-side; radius
// containment is checked here because the scan cap applies before it.
// Documents without a usable embedding carry no semantic signal and are
// skipped.
func (r *Repo) SearchSemantic(
	ctx context.Context, vec []float32, f filter.Filter, activeAt int64,
) ([]candidate.Candidate, error) {
	returnFields := append([]string{listing.FieldEmbedding}, documentFields...)

	q := &db.FilterQuery{
		IndexName:    r.indexName,
		Filter:       f.WithoutGeo(),
		ActiveAt:     activeAt,
		Limit:        r.scanLimit,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchFiltered(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search semantic: %w", err)
	}

	circle := f.Circle()
	cands := make([]candidate.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		raw, ok := entry.Fields[listing.FieldEmbedding]
		if !ok || raw == "" {
			continue
		}
		emb, err := listing.DecodeVector(raw)
		if err != nil || vector.IsZero(emb) {
			continue
		}
		delete(entry.Fields, listing.FieldEmbedding)

		c := candidate.Candidate{
			ID:       strings.TrimPrefix(entry.Key, r.keyPrefix),
			Fields:   entry.Fields,
			Semantic: candidate.Float(vector.Cosine(vec, emb)),
		}

		if circle != nil {
			d, ok := distanceTo(entry.Fields, circle.Center)
			if !ok || d > circle.RadiusMeters {
				continue
			}
			c.DistanceMeters = candidate.Float(d)
		}

		cands = append(cands, c)
	}
	return cands, nil
}

// distanceTo parses the stored location field and returns the haversine
// distance in meters from the given center.
func distanceTo(fields map[string]string, center listing.Point) (float64, bool) {
	raw, ok := fields[listing.FieldLocation]
	if !ok || raw == "" {
		return 0, false
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, false
	}
	lon, err1 := strconv.ParseFloat(parts[0], 64)
	lat, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return geo.Haversine(center.Lat, center.Lon, lat, lon), true
}
