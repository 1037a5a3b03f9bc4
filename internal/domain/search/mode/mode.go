package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Lexical ranks by text-index relevance only.
	Lexical Mode = "lexical"
	// Geo ranks by proximity within a bounded radius.
	Geo Mode = "geo"
	// Semantic ranks by embedding cosine similarity.
	Semantic Mode = "semantic"
	// Hybrid fuses lexical and semantic signals.
	Hybrid Mode = "hybrid"
	// Advanced fuses lexical and proximity signals (the classic
	// text+geo composite ranking).
	Advanced Mode = "advanced"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	switch m {
	case Lexical, Geo, Semantic, Hybrid, Advanced:
		return true
	}
	return false
}

// NeedsQuery reports whether the mode requires free-text input.
func (m Mode) NeedsQuery() bool {
	return m != Geo
}

// NeedsEmbedding reports whether the mode requires the embedding subsystem.
func (m Mode) NeedsEmbedding() bool {
	return m == Semantic || m == Hybrid
}
