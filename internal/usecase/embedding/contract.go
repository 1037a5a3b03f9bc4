package embedding

import (
	"context"

	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
)

// ListingSource is the listing storage surface the vectorization jobs need.
type ListingSource interface {
	Get(ctx context.Context, id string) (domlisting.Listing, error)
	SetEmbedding(ctx context.Context, id string, vec []float32) error
	AllIDs(ctx context.Context) ([]string, error)
}
