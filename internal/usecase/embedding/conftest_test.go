package embedding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kazdex/bazaar/internal/domain"
	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
)

type mockSource struct {
	mu     sync.Mutex
	getFn  func(ctx context.Context, id string) (domlisting.Listing, error)
	allFn  func(ctx context.Context) ([]string, error)
	setErr error
	stored map[string][]float32
	setDone chan string
}

func newMockSource() *mockSource {
	return &mockSource{stored: make(map[string][]float32), setDone: make(chan string, 16)}
}

func (m *mockSource) Get(ctx context.Context, id string) (domlisting.Listing, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domlisting.Listing{}, domain.ErrListingNotFound
}

func (m *mockSource) SetEmbedding(_ context.Context, id string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.stored[id] = vec
	select {
	case m.setDone <- id:
	default:
	}
	return nil
}

func (m *mockSource) AllIDs(ctx context.Context) ([]string, error) {
	if m.allFn != nil {
		return m.allFn(ctx)
	}
	return nil, nil
}

func (m *mockSource) vectorFor(id string) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored[id]
}

func (m *mockSource) waitForSet(t *testing.T) string {
	t.Helper()
	select {
	case id := <-m.setDone:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a vector write")
		return ""
	}
}

type mockEmbedder struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	lastBatch  []string
	embedErr   error
	vector     []float32
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.embedErr != nil {
		return domain.EmbeddingResult{}, m.embedErr
	}
	v := m.vector
	if v == nil {
		v = []float32{0.5, 0.5}
	}
	return domain.EmbeddingResult{Embedding: v, PromptTokens: 3, TotalTokens: 5}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	m.lastBatch = texts
	if m.embedErr != nil {
		return domain.BatchEmbeddingResult{}, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i) + 1}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, PromptTokens: len(texts) * 3, TotalTokens: len(texts) * 5}, nil
}

func (m *mockEmbedder) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls, m.batchCalls
}

// singleEmbedder hides BatchEmbed so the fallback path is exercised.
type singleEmbedder struct{ inner *mockEmbedder }

func (s *singleEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return s.inner.Embed(ctx, text)
}

func testListing(t *testing.T, id string, embedding []float32) domlisting.Listing {
	t.Helper()
	l, err := domlisting.New(domlisting.Params{
		ID:          id,
		Title:       "Mountain bike",
		Description: "Hardtail 29er",
		City:        "Austin",
		UserID:      "user-1",
		Location:    domlisting.Point{Lon: -97.74, Lat: 30.27},
	})
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if embedding != nil {
		return l.WithEmbedding(embedding)
	}
	return l
}
