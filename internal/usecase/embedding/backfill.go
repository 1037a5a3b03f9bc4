package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kazdex/bazaar/internal/domain"
)

// DefaultBackfillBatchSize is the number of corpus texts vectorized per
// provider call during a backfill sweep.
const DefaultBackfillBatchSize = 50

// BackfillStats summarizes one backfill sweep. Skipped counts listings whose
// corpus is empty; everything else is re-embedded.
type BackfillStats struct {
	Scanned  int
	Embedded int
	Skipped  int
	Failed   int
}

// Backfiller sweeps the listing keyspace and regenerates every listing's
// embedding from its canonical corpus. Existing vectors are rewritten too, so
// a sweep picks up expansion-table changes and catches refresh tasks dropped
// under load; the embedding cache keeps unchanged corpora off the provider.
type Backfiller struct {
	src       ListingSource
	embed     domain.Embedder
	batchSize int
	logger    *zap.Logger
}

// NewBackfiller creates a backfiller.
func NewBackfiller(src ListingSource, embed domain.Embedder, logger *zap.Logger) *Backfiller {
	return &Backfiller{src: src, embed: embed, batchSize: DefaultBackfillBatchSize, logger: logger}
}

// WithBatchSize overrides the per-call batch size.
func (b *Backfiller) WithBatchSize(n int) *Backfiller {
	if n > 0 {
		b.batchSize = n
	}
	return b
}

type backfillItem struct {
	id     string
	corpus string
}

// Run sweeps all listings once. Individual failures are logged and counted,
// never fatal: a partially vectorized corpus still serves searches.
func (b *Backfiller) Run(ctx context.Context) (BackfillStats, error) {
	ids, err := b.src.AllIDs(ctx)
	if err != nil {
		return BackfillStats{}, fmt.Errorf("list ids: %w", err)
	}

	stats := BackfillStats{Scanned: len(ids)}
	pending := make([]backfillItem, 0, b.batchSize)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		l, err := b.src.Get(ctx, id)
		if err != nil {
			stats.Failed++
			b.logger.Warn("Backfill load failed", zap.String("id", id), zap.Error(err))
			continue
		}
		corpus := corpusFor(&l)
		if corpus == "" {
			stats.Skipped++
			continue
		}

		pending = append(pending, backfillItem{id: id, corpus: corpus})
		if len(pending) >= b.batchSize {
			b.flush(ctx, pending, &stats)
			pending = pending[:0]
		}
	}

	if len(pending) > 0 {
		b.flush(ctx, pending, &stats)
	}

	b.logger.Info("Backfill sweep finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("embedded", stats.Embedded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (b *Backfiller) flush(ctx context.Context, items []backfillItem, stats *BackfillStats) {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.corpus
	}

	res, err := b.batchEmbed(ctx, texts)
	if err != nil {
		stats.Failed += len(items)
		b.logger.Warn("Backfill batch embedding failed",
			zap.Int("batch_size", len(items)), zap.Error(err))
		return
	}
	if len(res.Embeddings) != len(items) {
		stats.Failed += len(items)
		b.logger.Warn("Backfill batch size mismatch",
			zap.Int("want", len(items)), zap.Int("got", len(res.Embeddings)))
		return
	}

	for i, it := range items {
		if err := b.src.SetEmbedding(ctx, it.id, res.Embeddings[i]); err != nil {
			stats.Failed++
			b.logger.Warn("Backfill vector write failed", zap.String("id", it.id), zap.Error(err))
			continue
		}
		stats.Embedded++
	}
}

func (b *Backfiller) batchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := b.embed.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, b.embed, texts)
}
