package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kazdex/bazaar/internal/domain"
	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
)

type mockRepo struct {
	saveFn  func(ctx context.Context, l *domlisting.Listing) error
	getFn   func(ctx context.Context, id string) (domlisting.Listing, error)
	delFn   func(ctx context.Context, id string) error
	clearFn func(ctx context.Context, id string) error
	listFn  func(ctx context.Context, f filter.Filter, userID string, activeAt int64,
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

func (m *mockRepo) ClearEmbedding(ctx context.Context, id string) error {
	if m.clearFn != nil {
		return m.clearFn(ctx, id)
	}
	return nil
}

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
	full      bool
}

func (m *mockRefresher) Schedule(id string) bool {
	if m.full {
		return false
	}
	m.scheduled = append(m.scheduled, id)
	return true
}

func validInput() CreateInput {
	return CreateInput{
		Title:       "Road bike",
		Description: "Carbon frame",
		Price:       1200,
		City:        "Austin",
		Category:    domlisting.CategorySports,
		Location:    domlisting.Point{Lon: -97.74, Lat: 30.27},
	}
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

func TestCreate_SavesAndSchedules(t *testing.T) {
	repo := &mockRepo{}
	var saved *domlisting.Listing
	repo.saveFn = func(_ context.Context, l *domlisting.Listing) error {
		saved = l
		return nil
	}
	ref := &mockRefresher{}
	svc := New(repo, ref)

	l, err := svc.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ID() == "" {
		t.Fatal("id must be generated")
	}
	if saved == nil || saved.ID() != l.ID() {
		t.Fatal("listing not saved")
	}
	if l.UserID() != "user-1" {
		t.Errorf("user id = %q", l.UserID())
	}
	if len(ref.scheduled) != 1 || ref.scheduled[0] != l.ID() {
		t.Errorf("scheduled = %v, want the new id", ref.scheduled)
	}
	// default expiry window
	wantExpiry := l.PostedAt().AddDate(0, 0, domlisting.DefaultExpiryDays)
	if !l.ExpiresAt().Equal(wantExpiry) {
		t.Errorf("expires at = %v, want %v", l.ExpiresAt(), wantExpiry)
	}
}

func TestCreate_QueueFullStillSucceeds(t *testing.T) {
	svc := New(&mockRepo{}, &mockRefresher{full: true})

	if _, err := svc.Create(context.Background(), "user-1", validInput()); err != nil {
		t.Fatalf("a full refresh queue must not fail the write: %v", err)
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	svc := New(&mockRepo{}, &mockRefresher{})
	in := validInput()
	in.Title = ""

	_, err := svc.Create(context.Background(), "user-1", in)
	if !errors.Is(err, domain.ErrInvalidListing) {
		t.Fatalf("err = %v, want ErrInvalidListing", err)
	}
}

func TestUpdate_OwnerCheck(t *testing.T) {
	repo := &mockRepo{}
	repo.getFn = func(_ context.Context, id string) (domlisting.Listing, error) {
		return storedListing(t, id, "owner"), nil
	}
	svc := New(repo, &mockRefresher{})

	title := "New title"
	_, err := svc.Update(context.Background(), "intruder", "lst-1", domlisting.Update{Title: &title})
	if !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
}

func TestUpdate_CorpusChangeSchedulesRefresh(t *testing.T) {
	repo := &mockRepo{}
	repo.getFn = func(_ context.Context, id string) (domlisting.Listing, error) {
		l := storedListing(t, id, "owner")
		return l.WithEmbedding([]float32{0.1}), nil
	}
	var cleared bool
	repo.clearFn = func(_ context.Context, _ string) error {
		cleared = true
		return nil
	}
	var saved *domlisting.Listing
	repo.saveFn = func(_ context.Context, l *domlisting.Listing) error {
		saved = l
		return nil
	}
	ref := &mockRefresher{}
	svc := New(repo, ref)

	title := "Gravel bike"
	got, err := svc.Update(context.Background(), "owner", "lst-1", domlisting.Update{Title: &title})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title() != "Gravel bike" {
		t.Errorf("title = %q", got.Title())
	}
	if !cleared {
		t.Error("stale embedding must be cleared")
	}
	if len(ref.scheduled) != 1 {
		t.Errorf("scheduled = %v, want one refresh", ref.scheduled)
	}
	if len(saved.Embedding()) != 0 {
		t.Error("stale embedding must not be rewritten")
	}
}

func TestUpdate_PriceOnlyKeepsEmbedding(t *testing.T) {
	repo := &mockRepo{}
	repo.getFn = func(_ context.Context, id string) (domlisting.Listing, error) {
		l := storedListing(t, id, "owner")
		return l.WithEmbedding([]float32{0.1}), nil
	}
	repo.clearFn = func(_ context.Context, _ string) error {
		t.Fatal("price change must not clear the embedding")
		return nil
	}
	ref := &mockRefresher{}
	svc := New(repo, ref)

	price := 999.0
	_, err := svc.Update(context.Background(), "owner", "lst-1", domlisting.Update{Price: &price})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ref.scheduled) != 0 {
		t.Errorf("scheduled = %v, want none", ref.scheduled)
	}
}

func TestDelete_OwnerCheck(t *testing.T) {
	repo := &mockRepo{}
	repo.getFn = func(_ context.Context, id string) (domlisting.Listing, error) {
		return storedListing(t, id, "owner"), nil
	}
	svc := New(repo, &mockRefresher{})

	if err := svc.Delete(context.Background(), "intruder", "lst-1"); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
	if err := svc.Delete(context.Background(), "owner", "lst-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGet_StripsEmbedding(t *testing.T) {
	repo := &mockRepo{}
	repo.getFn = func(_ context.Context, id string) (domlisting.Listing, error) {
		l := storedListing(t, id, "owner")
		return l.WithEmbedding([]float32{0.1, 0.2}), nil
	}
	svc := New(repo, &mockRefresher{})

	got, err := svc.Get(context.Background(), "lst-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Embedding()) != 0 {
		t.Error("embedding must be stripped")
	}
}

func TestListByUser_IncludesExpired(t *testing.T) {
	repo := &mockRepo{}
	repo.listFn = func(_ context.Context, _ filter.Filter, userID string, activeAt int64,
		sortBy string, sortDesc bool, _, _ int) ([]domlisting.Listing, int, error) {
		if userID != "owner" {
			t.Errorf("user id = %q", userID)
		}
		if activeAt != 0 {
			t.Errorf("activeAt = %d, want 0 (owners see expired listings)", activeAt)
		}
		if sortBy != domlisting.FieldPostedAt || !sortDesc {
			t.Errorf("sort = %s desc=%v, want posted_at desc", sortBy, sortDesc)
		}
		return []domlisting.Listing{storedListing(t, "lst-1", "owner")}, 1, nil
	}
	svc := New(repo, &mockRefresher{})

	items, total, err := svc.ListByUser(context.Background(), "owner", 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("items = %d total = %d", len(items), total)
	}
}

func TestBrowse_ActiveOnly(t *testing.T) {
	repo := &mockRepo{}
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	repo.listFn = func(_ context.Context, _ filter.Filter, userID string, activeAt int64,
		_ string, _ bool, _, _ int) ([]domlisting.Listing, int, error) {
		if userID != "" {
			t.Errorf("user id = %q, want unscoped", userID)
		}
		if activeAt != now.Unix() {
			t.Errorf("activeAt = %d, want %d", activeAt, now.Unix())
		}
		return nil, 0, nil
	}
	svc := New(repo, &mockRefresher{}).WithClock(func() time.Time { return now })

	if _, _, err := svc.Browse(context.Background(), filter.Filter{}, 0, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
