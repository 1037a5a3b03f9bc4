package search

import (
	"context"

	"github.com/kazdex/bazaar/internal/domain"
	"github.com/kazdex/bazaar/internal/domain/search/candidate"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
)

// Retriever defines the storage contract for candidate retrieval. Each
// method contributes one relevance signal.
type Retriever interface {
	SearchText(
		ctx context.Context, terms []string, f filter.Filter, activeAt int64, topK int,
	) ([]candidate.Candidate, error)

	SearchNear(
		ctx context.Context, f filter.Filter, activeAt int64, topK int,
	) ([]candidate.Candidate, error)

	SearchSemantic(
		ctx context.Context, vec []float32, f filter.Filter, activeAt int64,
	) ([]candidate.Candidate, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
