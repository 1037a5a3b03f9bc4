package chi

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kazdex/bazaar/internal/domain"
	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/candidate"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
	healthuc "github.com/kazdex/bazaar/internal/usecase/health"
	listinguc "github.com/kazdex/bazaar/internal/usecase/listing"
	searchuc "github.com/kazdex/bazaar/internal/usecase/search"
)

type mockRepo struct {
	saveFn func(ctx context.Context, l *domlisting.Listing) error
	getFn  func(ctx context.Context, id string) (domlisting.Listing, error)
	delFn  func(ctx context.Context, id string) error
	listFn func(ctx context.Context, f filter.Filter, userID string, activeAt int64,
		sortBy string, sortDesc bool, offset, limit int) ([]domlisting.Listing, int, error)
}

func (m *mockRepo) Save(ctx context.Context, l *domlisting.Listing) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, l)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (domlisting.Listing, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domlisting.Listing{}, domain.ErrListingNotFound
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.delFn != nil {
		return m.delFn(ctx, id)
	}
	return nil
}

func (m *mockRepo) ClearEmbedding(_ context.Context, _ string) error { return nil }

func (m *mockRepo) List(
	ctx context.Context, f filter.Filter, userID string, activeAt int64,
	sortBy string, sortDesc bool, offset, limit int,
) ([]domlisting.Listing, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f, userID, activeAt, sortBy, sortDesc, offset, limit)
	}
	return nil, 0, nil
}

type mockRefresher struct {
	scheduled []string
}

func (m *mockRefresher) Schedule(id string) bool {
	m.scheduled = append(m.scheduled, id)
	return true
}

type mockRetriever struct {
	textFn func(ctx context.Context, terms []string, f filter.Filter, activeAt int64, topK int) ([]candidate.Candidate, error)
	nearFn func(ctx context.Context, f filter.Filter, activeAt int64, topK int) ([]candidate.Candidate, error)
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
	_ context.Context, _ []float32, _ filter.Filter, _ int64,
) ([]candidate.Candidate, error) {
	return nil, nil
}

type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// testEnv bundles the server with the mocks behind it.
type testEnv struct {
	repo      *mockRepo
	refresher *mockRefresher
	retriever *mockRetriever
	pinger    *mockPinger
	router    *chi.Mux
}

type envOption func(*testEnv)

func semanticOff() envOption {
	return func(e *testEnv) {
		srv := NewServer(
			listinguc.New(e.repo, e.refresher),
			searchuc.New(e.retriever, &mockEmbedder{}, false),
			healthuc.New(e.pinger, nil),
			zap.NewNop(),
		)
		e.router = chi.NewRouter()
		srv.Routes(e.router)
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	e := &testEnv{
		repo:      &mockRepo{},
		refresher: &mockRefresher{},
		retriever: &mockRetriever{},
		pinger:    &mockPinger{},
	}

	srv := NewServer(
		listinguc.New(e.repo, e.refresher),
		searchuc.New(e.retriever, &mockEmbedder{}, true),
		healthuc.New(e.pinger, nil),
		zap.NewNop(),
	)
	e.router = chi.NewRouter()
	srv.Routes(e.router)

	for _, opt := range opts {
		opt(e)
	}
	return e
}

func storedListing(t *testing.T, id, owner string) domlisting.Listing {
	t.Helper()
	l, err := domlisting.New(domlisting.Params{
		ID:          id,
		Title:       "Road bike",
		Description: "Carbon frame",
		Price:       1200,
		City:        "Austin",
		UserID:      owner,
		Location:    domlisting.Point{Lon: -97.74, Lat: 30.27},
		PostedAt:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return l
}

func candidateFor(t *testing.T, id string, lexical float64) candidate.Candidate {
	t.Helper()
	l := storedListing(t, id, "user-1")
	return candidate.Candidate{
		ID:      id,
		Fields:  l.Fields(),
		Lexical: candidate.Float(lexical),
	}
}
