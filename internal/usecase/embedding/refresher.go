// Package embedding runs the asynchronous vectorization jobs: the write-path
// refresh queue and the full backfill sweep. Both derive the corpus text with
// expand.Corpus so write-time and backfill-time vectors never drift.
package embedding

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kazdex/bazaar/internal/domain"
	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/expand"
	"github.com/kazdex/bazaar/internal/metrics"
)

const (
	// DefaultQueueSize bounds the pending refresh queue.
	DefaultQueueSize = 1024
	// DefaultWorkers is the number of concurrent refresh workers.
	DefaultWorkers = 2
)

// Refresher consumes listing IDs from a bounded queue and writes fresh
// embedding vectors back to storage. Scheduling never blocks the write path:
// when the queue is full the task is dropped and the backfill sweep picks the
// listing up later.
type Refresher struct {
	src     ListingSource
	embed   domain.Embedder
	queue   chan string
	workers int
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewRefresher creates a refresher over a bounded queue. Non-positive sizes
// fall back to the defaults.
func NewRefresher(src ListingSource, embed domain.Embedder, queueSize, workers int, logger *zap.Logger) *Refresher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Refresher{
		src:     src,
		embed:   embed,
		queue:   make(chan string, queueSize),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker pool. Workers exit when the context is cancelled
// or the queue is closed by Stop.
func (r *Refresher) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.worker(ctx)
		}()
	}
}

// Stop closes the queue and waits for in-flight tasks to finish. Schedule
// must not be called after Stop.
func (r *Refresher) Stop() {
	close(r.queue)
	r.wg.Wait()
}

// Schedule enqueues a refresh for the listing without blocking. It reports
// false when the queue is full and the task was dropped.
func (r *Refresher) Schedule(id string) bool {
	select {
	case r.queue <- id:
		metrics.RefreshQueueDepth.Set(float64(len(r.queue)))
		return true
	default:
		metrics.RefreshDroppedTotal.Inc()
		return false
	}
}

func (r *Refresher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-r.queue:
			if !ok {
				return
			}
			metrics.RefreshQueueDepth.Set(float64(len(r.queue)))
			r.process(ctx, id)
		}
	}
}

func (r *Refresher) process(ctx context.Context, id string) {
	l, err := r.src.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			// Deleted between the write and the refresh running.
			r.logger.Debug("Refresh target gone", zap.String("id", id))
			return
		}
		r.logger.Warn("Refresh load failed", zap.String("id", id), zap.Error(err))
		return
	}

	corpus := corpusFor(&l)
	if corpus == "" {
		return
	}

	res, err := r.embed.Embed(ctx, corpus)
	if err != nil {
		r.logger.Warn("Refresh embedding failed", zap.String("id", id), zap.Error(err))
		return
	}

	if err := r.src.SetEmbedding(ctx, id, res.Embedding); err != nil {
		r.logger.Warn("Refresh vector write failed", zap.String("id", id), zap.Error(err))
		return
	}

	r.logger.Debug("Listing vectorized",
		zap.String("id", id),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.TotalTokens),
	)
}

func corpusFor(l *domlisting.Listing) string {
	return expand.Corpus(expand.CorpusInput{
		Title:       l.Title(),
		Description: l.Description(),
		Category:    string(l.Category()),
		Tags:        l.Tags(),
		City:        l.City(),
	})
}
