package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/candidate"
	"github.com/kazdex/bazaar/internal/logger"
	"github.com/kazdex/bazaar/internal/metrics"
)

// sanitize walks the ranked candidates in order, validates each against the
// listing schema, and emits the requested page. Malformed documents are
// logged and skipped, never failing the batch; the page may come up short
// when the over-fetched batch is exhausted. Embeddings are always stripped
// from the output.
func sanitize(ctx context.Context, cands []*candidate.Candidate, skip, limit int) []Result {
	log := logger.FromContext(ctx)
	results := make([]Result, 0, limit)
	valid := 0

	for _, c := range cands {
		l, err := listing.FromFields(c.ID, c.Fields)
		if err != nil {
			log.Warn("Dropping malformed candidate", zap.String("id", c.ID), zap.Error(err))
			metrics.SearchDroppedCandidatesTotal.Inc()
			continue
		}

		valid++
		if valid <= skip {
			continue
		}
		if len(results) == limit {
			break
		}

		results = append(results, Result{
			Listing:        l.WithoutEmbedding(),
			Score:          c.Score,
			DistanceMeters: c.DistanceMeters,
		})
	}

	return results
}
