// Package request defines the validated, clamped search request.
package request

import (
	"fmt"

	"github.com/kazdex/bazaar/internal/domain"
	"github.com/kazdex/bazaar/internal/domain/search/expand"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
	"github.com/kazdex/bazaar/internal/domain/search/mode"
)

// Search parameter limits and defaults.
const (
	MinQueryLength = 2
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100

	// DefaultRadiusMeters applies when coordinates come without a radius.
	DefaultRadiusMeters = 5000
)

// Mode-dependent minimum fused score applied after fusion. Out-of-range
// caller values clamp to these instead of rejecting the request.
const (
	DefaultMinScoreSemantic = 0.25
	DefaultMinScoreHybrid   = 0.1
)

// Sort selects the final ordering of the result page.
type Sort string

// Sort options. Relevance keeps the fused order; Date and Price skip fusion
// entirely and order by the raw field.
const (
	SortRelevance Sort = "relevance"
	SortDate      Sort = "date"
	SortPrice     Sort = "price"
)

// IsValid checks if the sort is one of the supported values.
func (s Sort) IsValid() bool {
	return s == SortRelevance || s == SortDate || s == SortPrice
}

// Request is a validated search query.
type Request struct {
	query          string
	searchMode     mode.Mode
	filters        filter.Filter
	textWeight     float64
	semanticWeight float64
	minScore       float64
	sort           Sort
	skip           int
	limit          int
}

// Params holds raw caller-supplied search parameters.
type Params struct {
	Query    string
	Mode     mode.Mode
	Filters  filter.Filter
	// TextWeight and SemanticWeight tune hybrid fusion; zero values mean
	// "use defaults".
	TextWeight     float64
	SemanticWeight float64
	// MinScore filters fused scores; nil means mode default.
	MinScore *float64
	Sort     Sort
	Skip     int
	Limit    int
}

// New validates and normalizes search parameters. Out-of-range numeric
// parameters clamp to defaults; a structurally unusable request (unknown
// mode, missing query for a text mode, geo mode without coordinates) is
// rejected.
func New(p Params) (Request, error) {
	m := p.Mode
	if m == "" {
		m = mode.Advanced
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidRequest, p.Mode)
	}

	if m.NeedsQuery() {
		if len(p.Query) < MinQueryLength {
			return Request{}, fmt.Errorf("%w: query must be at least %d characters", domain.ErrInvalidRequest, MinQueryLength)
		}
		if len(p.Query) > MaxQueryLength {
			return Request{}, fmt.Errorf("%w: query too long (max %d)", domain.ErrInvalidRequest, MaxQueryLength)
		}
		// A punctuation-only query cleans to nothing; the text index has no
		// terms to match and would choke on an empty clause.
		if expand.Clean(p.Query) == "" {
			return Request{}, fmt.Errorf("%w: query contains no searchable terms", domain.ErrInvalidRequest)
		}
	}
	if m == mode.Geo && !p.Filters.HasGeo() {
		return Request{}, fmt.Errorf("%w: geo mode requires coordinates", domain.ErrInvalidRequest)
	}

	s := p.Sort
	if s == "" {
		s = SortRelevance
	}
	if !s.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidRequest, p.Sort)
	}

	skip := p.Skip
	if skip < 0 {
		skip = 0
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	minScore := defaultMinScore(m)
	if p.MinScore != nil && *p.MinScore >= 0 && *p.MinScore <= 1 {
		minScore = *p.MinScore
	}

	return Request{
		query:          p.Query,
		searchMode:     m,
		filters:        p.Filters,
		textWeight:     p.TextWeight,
		semanticWeight: p.SemanticWeight,
		minScore:       minScore,
		sort:           s,
		skip:           skip,
		limit:          limit,
	}, nil
}

func defaultMinScore(m mode.Mode) float64 {
	switch m {
	case mode.Semantic:
		return DefaultMinScoreSemantic
	case mode.Hybrid:
		return DefaultMinScoreHybrid
	default:
		return 0
	}
}

// Query returns the raw search text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filters returns the conjunctive pre-filter.
func (r *Request) Filters() filter.Filter { return r.filters }

// TextWeight returns the caller-supplied hybrid text weight (0 = default).
func (r *Request) TextWeight() float64 { return r.textWeight }

// SemanticWeight returns the caller-supplied hybrid semantic weight (0 = default).
func (r *Request) SemanticWeight() float64 { return r.semanticWeight }

// MinScore returns the post-fusion score threshold.
func (r *Request) MinScore() float64 { return r.minScore }

// Sort returns the requested result ordering.
func (r *Request) Sort() Sort { return r.sort }

// Skip returns the page offset.
func (r *Request) Skip() int { return r.skip }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// RadiusMeters returns the effective geo radius for proximity normalization.
func (r *Request) RadiusMeters() float64 {
	if c := r.filters.Circle(); c != nil {
		return c.RadiusMeters
	}
	return DefaultRadiusMeters
}
