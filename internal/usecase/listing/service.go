// Package listing implements listing lifecycle operations: create, read,
// update, delete, and owner-scoped listing pages. Writes never block on
// embedding computation; the refresher fills vectors in asynchronously.
package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kazdex/bazaar/internal/domain"
	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
	"github.com/kazdex/bazaar/internal/logger"
)

// Service handles listing CRUD with asynchronous vectorization.
type Service struct {
	repo    Repository
	refresh Refresher
	now     func() time.Time
}

// New creates a listing service.
func New(repo Repository, refresh Refresher) *Service {
	return &Service{repo: repo, refresh: refresh, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateInput holds the caller-supplied fields of a new listing.
type CreateInput struct {
	Title       string
	Description string
	Price       float64
	Tags        []string
	City        string
	Category    domlisting.Category
	Features    []string
	Location    domlisting.Point
	Images      []string
	ExpiryDays  int
}

// Create validates and stores a new listing, then schedules its embedding.
// The response returns before the vector exists: semantic search picks the
// listing up once the refresher has run.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (domlisting.Listing, error) {
	l, err := domlisting.New(domlisting.Params{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Tags:        in.Tags,
		City:        in.City,
		Category:    in.Category,
		Features:    in.Features,
		UserID:      userID,
		Location:    in.Location,
		Images:      in.Images,
		PostedAt:    s.now().UTC(),
		ExpiryDays:  in.ExpiryDays,
	})
	if err != nil {
		return domlisting.Listing{}, err
	}

	if err := s.repo.Save(ctx, &l); err != nil {
		return domlisting.Listing{}, fmt.Errorf("save listing: %w", err)
	}

	s.scheduleRefresh(ctx, l.ID())
	return l, nil
}

// Get returns a listing by id with the embedding stripped.
func (s *Service) Get(ctx context.Context, id string) (domlisting.Listing, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return domlisting.Listing{}, err
	}
	return l.WithoutEmbedding(), nil
}

// Update applies an owner-checked partial update. A corpus-affecting change
// drops the stale embedding and schedules a recompute.
func (s *Service) Update(
	ctx context.Context, userID, id string, u domlisting.Update,
) (domlisting.Listing, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domlisting.Listing{}, err
	}
	if current.UserID() != userID {
		return domlisting.Listing{}, domain.ErrNotOwner
	}

	updated, err := current.Apply(u)
	if err != nil {
		return domlisting.Listing{}, err
	}

	if u.AffectsCorpus() {
		updated = updated.WithoutEmbedding()
	}

	if err := s.repo.Save(ctx, &updated); err != nil {
		return domlisting.Listing{}, fmt.Errorf("save listing: %w", err)
	}

	if u.AffectsCorpus() {
		// Save keeps absent fields untouched, so the stale vector must go
		// explicitly before the refresher writes a fresh one.
		if err := s.repo.ClearEmbedding(ctx, id); err != nil {
			logger.FromContext(ctx).Warn("Failed to clear stale embedding",
				zap.String("id", id), zap.Error(err))
		}
		s.scheduleRefresh(ctx, id)
	}

	return updated.WithoutEmbedding(), nil
}

// Delete removes a listing after an owner check.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.UserID() != userID {
		return domain.ErrNotOwner
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

// ListByUser returns the owner's listings newest-first, expired included:
// owners manage their full inventory.
func (s *Service) ListByUser(
	ctx context.Context, userID string, offset, limit int,
) ([]domlisting.Listing, int, error) {
	if limit <= 0 {
		limit = 20
	}
	items, total, err := s.repo.List(
		ctx, filter.Filter{}, userID, 0, domlisting.FieldPostedAt, true, offset, limit,
	)
	if err != nil {
		return nil, 0, err
	}
	out := make([]domlisting.Listing, 0, len(items))
	for _, l := range items {
		out = append(out, l.WithoutEmbedding())
	}
	return out, total, nil
}

// Browse returns a filtered page of active listings, newest-first.
func (s *Service) Browse(
	ctx context.Context, f filter.Filter, offset, limit int,
) ([]domlisting.Listing, int, error) {
	if limit <= 0 {
		limit = 20
	}
	items, total, err := s.repo.List(
		ctx, f, "", s.now().Unix(), domlisting.FieldPostedAt, true, offset, limit,
	)
	if err != nil {
		return nil, 0, err
	}
	out := make([]domlisting.Listing, 0, len(items))
	for _, l := range items {
		out = append(out, l.WithoutEmbedding())
	}
	return out, total, nil
}

func (s *Service) scheduleRefresh(ctx context.Context, id string) {
	if s.refresh == nil {
		return
	}
	if !s.refresh.Schedule(id) {
		logger.FromContext(ctx).Warn("Embedding refresh queue full, dropping task",
			zap.String("id", id))
	}
}
