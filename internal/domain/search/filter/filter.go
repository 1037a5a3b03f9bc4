// Package filter defines the conjunctive pre-filter shared by every
// retrieval strategy: equality on city and category, set-membership on tags,
// and geo-radius containment when coordinates are supplied.
package filter

import (
	"fmt"

	"github.com/kazdex/bazaar/internal/domain/geo"
	"github.com/kazdex/bazaar/internal/domain/listing"
)

// MaxTags bounds the tag set-membership clause.
const MaxTags = 32

// Circle is a geo-radius containment clause.
type Circle struct {
	Center       listing.Point
	RadiusMeters float64
}

// Filter is a validated conjunctive (AND) candidate pre-filter.
type Filter struct {
	city     string
	category listing.Category
	tags     []string
	circle   *Circle
}

// New validates and creates a Filter. All clauses are optional; supplied
// clauses are combined with AND semantics.
func New(city string, category listing.Category, tags []string, circle *Circle) (Filter, error) {
	if category != "" && !category.IsValid() {
		return Filter{}, fmt.Errorf("unknown category %q", category)
	}
	if len(tags) > MaxTags {
		return Filter{}, fmt.Errorf("too many tags (max %d)", MaxTags)
	}
	if circle != nil {
		if !geo.ValidateCoordinates(circle.Center.Lat, circle.Center.Lon) {
			return Filter{}, fmt.Errorf("filter coordinates out of range")
		}
		if circle.RadiusMeters <= 0 {
			return Filter{}, fmt.Errorf("radius must be positive")
		}
	}
	return Filter{city: city, category: category, tags: tags, circle: circle}, nil
}

// City returns the city equality clause ("" = unset).
func (f Filter) City() string { return f.city }

// Category returns the category equality clause ("" = unset).
func (f Filter) Category() listing.Category { return f.category }

// Tags returns the tag set-membership clause (any-of).
func (f Filter) Tags() []string { return f.tags }

// Circle returns the geo containment clause (nil = unset).
func (f Filter) Circle() *Circle { return f.circle }

// HasGeo reports whether a geo clause is present.
func (f Filter) HasGeo() bool { return f.circle != nil }

// WithoutGeo returns a copy with the geo clause removed. The semantic scan
// applies non-geo clauses server-side and radius containment client-side.
func (f Filter) WithoutGeo() Filter {
	c := f
	c.circle = nil
	return c
}

// IsEmpty reports whether no clause is set.
func (f Filter) IsEmpty() bool {
	return f.city == "" && f.category == "" && len(f.tags) == 0 && f.circle == nil
}
