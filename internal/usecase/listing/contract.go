package listing

import (
	"context"

	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
)

// Repository defines the storage contract for listings.
type Repository interface {
	Save(ctx context.Context, l *domlisting.Listing) error
	Get(ctx context.Context, id string) (domlisting.Listing, error)
	Delete(ctx context.Context, id string) error
	ClearEmbedding(ctx context.Context, id string) error
	List(
		ctx context.Context, f filter.Filter, userID string, activeAt int64,
		sortBy string, sortDesc bool, offset, limit int,
	) ([]domlisting.Listing, int, error)
}

// Refresher schedules asynchronous embedding computation for a listing.
// Schedule must never block the write path; false means the task was
// dropped because the queue is full.
type Refresher interface {
	Schedule(id string) bool
}
