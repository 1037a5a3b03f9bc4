package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
)

func TestRefresher_SchedulesAndVectorizes(t *testing.T) {
	src := newMockSource()
	src.getFn = func(_ context.Context, id string) (domlisting.Listing, error) {
		return testListing(t, id, nil), nil
	}
	emb := &mockEmbedder{vector: []float32{0.1, 0.2, 0.3}}

	r := NewRefresher(src, emb, 8, 1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)
	defer r.Stop()

	if !r.Schedule("lst-1") {
		t.Fatal("schedule rejected with an empty queue")
	}

	if id := src.waitForSet(t); id != "lst-1" {
		t.Fatalf("vector written for %q, want lst-1", id)
	}
	got := src.vectorFor("lst-1")
	if len(got) != 3 || got[0] != 0.1 {
		t.Errorf("stored vector = %v", got)
	}
}

func TestRefresher_FullQueueDrops(t *testing.T) {
	src := newMockSource()
	emb := &mockEmbedder{}

	// One slot, no workers started: the second task must be dropped.
	r := NewRefresher(src, emb, 1, 1, zap.NewNop())
	if !r.Schedule("a") {
		t.Fatal("first schedule must succeed")
	}
	if r.Schedule("b") {
		t.Fatal("second schedule must report a drop")
	}
}

func TestRefresher_DeletedListingSkipped(t *testing.T) {
	src := newMockSource()
	emb := &mockEmbedder{}

	r := NewRefresher(src, emb, 8, 1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	r.Schedule("gone")
	r.Stop()

	if calls, _ := emb.calls(); calls != 0 {
		t.Errorf("embed calls = %d, want 0 for a deleted listing", calls)
	}
}

func TestRefresher_EmbedFailureLeavesNoVector(t *testing.T) {
	src := newMockSource()
	src.getFn = func(_ context.Context, id string) (domlisting.Listing, error) {
		return testListing(t, id, nil), nil
	}
	emb := &mockEmbedder{embedErr: errors.New("provider down")}

	r := NewRefresher(src, emb, 8, 1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	r.Schedule("lst-1")
	r.Stop()

	if v := src.vectorFor("lst-1"); v != nil {
		t.Errorf("vector = %v, want none after a failed embed", v)
	}
}

func TestRefresher_StopDrainsQueue(t *testing.T) {
	src := newMockSource()
	src.getFn = func(_ context.Context, id string) (domlisting.Listing, error) {
		return testListing(t, id, nil), nil
	}
	emb := &mockEmbedder{}

	r := NewRefresher(src, emb, 8, 2, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	for _, id := range []string{"a", "b", "c"} {
		if !r.Schedule(id) {
			t.Fatalf("schedule %s rejected", id)
		}
	}
	r.Stop()

	deadline := time.Now().Add(time.Second)
	for _, id := range []string{"a", "b", "c"} {
		for src.vectorFor(id) == nil {
			if time.Now().After(deadline) {
				t.Fatalf("listing %s never vectorized", id)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestRefresher_Defaults(t *testing.T) {
	r := NewRefresher(newMockSource(), &mockEmbedder{}, 0, 0, zap.NewNop())
	if cap(r.queue) != DefaultQueueSize {
		t.Errorf("queue cap = %d, want %d", cap(r.queue), DefaultQueueSize)
	}
	if r.workers != DefaultWorkers {
		t.Errorf("workers = %d, want %d", r.workers, DefaultWorkers)
	}
}
