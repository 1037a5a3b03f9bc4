// Package candidate defines the ephemeral per-request unit of ranking: a raw
// fetched document plus whichever relevance signals were observed for it.
package candidate

// Candidate is a document under consideration for ranking. Fields holds the
// raw stored hash fields; schema validation happens later at the sanitizer
// boundary, so a Candidate may still turn out to be malformed. Signal
// pointers are nil when the signal was not observed for this document —
// absent is not zero.
type Candidate struct {
	ID     string
	Fields map[string]string

	// Lexical is the raw text-index relevance score.
	Lexical *float64
	// DistanceMeters is the geo distance from the query point.
	DistanceMeters *float64
	// Semantic is the cosine similarity against the query embedding.
	Semantic *float64

	// Score is the fused ranking score, filled in by fusion.
	Score float64
}

// MergeSignals copies signal values from other into c, keeping existing ones.
func (c *Candidate) MergeSignals(other *Candidate) {
	if c.Lexical == nil {
		c.Lexical = other.Lexical
	}
	if c.DistanceMeters == nil {
		c.DistanceMeters = other.DistanceMeters
	}
	if c.Semantic == nil {
		c.Semantic = other.Semantic
	}
	if len(c.Fields) == 0 {
		c.Fields = other.Fields
	}
}

// Float returns a pointer to v, for building signal values inline.
func Float(v float64) *float64 { return &v }
