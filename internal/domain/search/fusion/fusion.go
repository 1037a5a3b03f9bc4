// Package fusion normalizes per-signal scores and combines them into one
// ranking value per candidate.
package fusion

import (
	"sort"

	"github.com/kazdex/bazaar/internal/domain/geo"
	"github.com/kazdex/bazaar/internal/domain/search/candidate"
)

// Weights control the linear combination of normalized signals.
type Weights struct {
	Lexical   float64
	Proximity float64
	Semantic  float64
}

// Default weights for the lexical+proximity composite ranking.
const (
	DefaultAdvancedLexical   = 2.0
	DefaultAdvancedProximity = 1.5
)

// Default weights for the lexical+semantic hybrid ranking.
const (
	DefaultHybridText     = 0.4
	DefaultHybridSemantic = 0.6
)

// AdvancedWeights returns the lexical+proximity weights.
func AdvancedWeights() Weights {
	return Weights{Lexical: DefaultAdvancedLexical, Proximity: DefaultAdvancedProximity}
}

// HybridWeights normalizes caller-supplied text/semantic weights to sum to 1.
// Negative weights or a non-positive sum fall back to an equal 0.5/0.5 split;
// a zero weight with a positive counterpart is honored (pure-semantic hybrid
// must rank identically to semantic mode).
func HybridWeights(text, semantic float64) Weights {
	if text < 0 || semantic < 0 || text+semantic <= 0 {
		return Weights{Lexical: 0.5, Semantic: 0.5}
	}
	sum := text + semantic
	return Weights{Lexical: text / sum, Semantic: semantic / sum}
}

// Sum returns the total active weight; fused scores lie in [0, Sum].
func (w Weights) Sum() float64 {
	return w.Lexical + w.Proximity + w.Semantic
}

// Fuse normalizes the available signals of each candidate and assigns the
// weighted combined score, then orders candidates by score descending.
//
// Lexical scores are normalized by the maximum observed lexical score within
// the set. Proximity is max(0, 1-distance/radius) when a distance was
// observed and 0 otherwise. Semantic cosine values are clamped at 0 so an
// anti-correlated vector scores like an absent signal; every fused score
// lands in [0, w.Sum()]. The sort is stable: candidates with equal scores
// keep the enumeration order of the input slice.
func Fuse(cands []*candidate.Candidate, w Weights, radiusMeters float64) []*candidate.Candidate {
	maxLexical := 0.0
	for _, c := range cands {
		if c.Lexical != nil && *c.Lexical > maxLexical {
			maxLexical = *c.Lexical
		}
	}

	for _, c := range cands {
		var lexical, proximity, semantic float64
		if c.Lexical != nil && maxLexical > 0 {
			lexical = *c.Lexical / maxLexical
		}
		if c.DistanceMeters != nil {
			proximity = geo.ProximityScore(*c.DistanceMeters, radiusMeters)
		}
		if c.Semantic != nil && *c.Semantic > 0 {
			semantic = *c.Semantic
		}
		c.Score = w.Lexical*lexical + w.Proximity*proximity + w.Semantic*semantic
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})

	return cands
}
