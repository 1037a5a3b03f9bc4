package search

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/kazdex/bazaar/internal/domain"
	"github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/candidate"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
	"github.com/kazdex/bazaar/internal/domain/search/request"
)

type mockRetriever struct {
	textFn     func(ctx context.Context, terms []string, f filter.Filter, activeAt int64, topK int) ([]candidate.Candidate, error)
	nearFn     func(ctx context.Context, f filter.Filter, activeAt int64, topK int) ([]candidate.Candidate, error)
	semanticFn func(ctx context.Context, vec []float32, f filter.Filter, activeAt int64) ([]candidate.Candidate, error)
}

func (m *mockRetriever) SearchText(
	ctx context.Context, terms []string, f filter.Filter, activeAt int64, topK int,
) ([]candidate.Candidate, error) {
	if m.textFn != nil {
		return m.textFn(ctx, terms, f, activeAt, topK)
	}
	return nil, nil
}

func (m *mockRetriever) SearchNear(
	ctx context.Context, f filter.Filter, activeAt int64, topK int,
) ([]candidate.Candidate, error) {
	if m.nearFn != nil {
		return m.nearFn(ctx, f, activeAt, topK)
	}
	return nil, nil
}

func (m *mockRetriever) SearchSemantic(
	ctx context.Context, vec []float32, f filter.Filter, activeAt int64,
) ([]candidate.Candidate, error) {
	if m.semanticFn != nil {
		return m.semanticFn(ctx, vec, f, activeAt)
	}
	return nil, nil
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
	lastIn string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastIn = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

// validFields builds a schema-complete candidate field map.
func validFields(t *testing.T, id string) map[string]string {
	t.Helper()
	l, err := listing.New(listing.Params{
		ID:          id,
		Title:       "Listing " + id,
		Description: "Description " + id,
		Price:       100,
		City:        "Austin",
		UserID:      "user-1",
		Location:    listing.Point{Lon: -97.74, Lat: 30.27},
		PostedAt:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return l.Fields()
}

func validCandidate(t *testing.T, id string, lexical float64) candidate.Candidate {
	t.Helper()
	return candidate.Candidate{
		ID:      id,
		Fields:  validFields(t, id),
		Lexical: candidate.Float(lexical),
	}
}

func mustRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	req, err := request.New(p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func fieldsWithPrice(t *testing.T, id string, price float64) map[string]string {
	t.Helper()
	f := validFields(t, id)
	f[listing.FieldPrice] = strconv.FormatFloat(price, 'f', -1, 64)
	return f
}
