// Package listing defines the Listing aggregate and its field-level schema.
package listing

import (
	"fmt"
	"time"

	"github.com/kazdex/bazaar/internal/domain"
	"github.com/kazdex/bazaar/internal/domain/geo"
)

// DefaultExpiryDays is applied when the caller supplies an unsupported value.
const DefaultExpiryDays = 30

// MaxTitleLength bounds listing titles.
const MaxTitleLength = 256

var allowedExpiryDays = map[int]bool{7: true, 14: true, 30: true, 90: true}

// NormalizeExpiryDays coerces unsupported expiry values to the default.
func NormalizeExpiryDays(days int) int {
	if allowedExpiryDays[days] {
		return days
	}
	return DefaultExpiryDays
}

// Point is a longitude/latitude pair.
type Point struct {
	Lon float64
	Lat float64
}

// Listing is the marketplace listing aggregate (immutable value object).
type Listing struct {
	id          string
	title       string
	description string
	price       float64
	tags        []string
	city        string
	category    Category
	features    []string
	userID      string
	location    Point
	images      []string
	postedAt    time.Time
	expiresAt   time.Time
	embedding   []float32
}

// Params holds the caller-supplied fields for New.
type Params struct {
	ID          string
	Title       string
	Description string
	Price       float64
	Tags        []string
	City        string
	Category    Category
	Features    []string
	UserID      string
	Location    Point
	Images      []string
	PostedAt    time.Time
	ExpiryDays  int
}

// New validates and creates a Listing. The expiry timestamp is derived from
// PostedAt plus the normalized expiry window. The embedding starts absent and
// is filled in asynchronously after the write.
func New(p Params) (Listing, error) {
	if p.ID == "" {
		return Listing{}, fmt.Errorf("%w: id is required", domain.ErrInvalidListing)
	}
	if p.Title == "" {
		return Listing{}, fmt.Errorf("%w: title is required", domain.ErrInvalidListing)
	}
	if len(p.Title) > MaxTitleLength {
		return Listing{}, fmt.Errorf("%w: title too long (max %d)", domain.ErrInvalidListing, MaxTitleLength)
	}
	if p.Description == "" {
		return Listing{}, fmt.Errorf("%w: description is required", domain.ErrInvalidListing)
	}
	if p.Price < 0 {
		return Listing{}, fmt.Errorf("%w: price must be non-negative", domain.ErrInvalidListing)
	}
	if p.City == "" {
		return Listing{}, fmt.Errorf("%w: city is required", domain.ErrInvalidListing)
	}
	if p.Category != "" && !p.Category.IsValid() {
		return Listing{}, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidListing, p.Category)
	}
	if p.UserID == "" {
		return Listing{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidListing)
	}
	if !geo.ValidateCoordinates(p.Location.Lat, p.Location.Lon) {
		return Listing{}, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidListing)
	}

	postedAt := p.PostedAt
	if postedAt.IsZero() {
		postedAt = time.Now().UTC()
	}
	expiresAt := postedAt.AddDate(0, 0, NormalizeExpiryDays(p.ExpiryDays))

	return Listing{
		id:          p.ID,
		title:       p.Title,
		description: p.Description,
		price:       p.Price,
		tags:        cloneStrings(p.Tags),
		city:        p.City,
		category:    p.Category,
		features:    cloneStrings(p.Features),
		userID:      p.UserID,
		location:    p.Location,
		images:      cloneStrings(p.Images),
		postedAt:    postedAt,
		expiresAt:   expiresAt,
	}, nil
}

// Reconstruct creates a Listing without validation (storage hydration).
func Reconstruct(
	id, title, description string, price float64, tags []string,
	city string, category Category, features []string, userID string,
	location Point, images []string, postedAt, expiresAt time.Time,
	embedding []float32,
) Listing {
	return Listing{
		id: id, title: title, description: description, price: price,
		tags: tags, city: city, category: category, features: features,
		userID: userID, location: location, images: images,
		postedAt: postedAt, expiresAt: expiresAt, embedding: embedding,
	}
}

// ID returns the listing identifier.
func (l *Listing) ID() string { return l.id }

// Title returns the listing title.
func (l *Listing) Title() string { return l.title }

// Description returns the listing description.
func (l *Listing) Description() string { return l.description }

// Price returns the asking price.
func (l *Listing) Price() float64 { return l.price }

// Tags returns the free-form tags in their original order.
func (l *Listing) Tags() []string { return l.tags }

// City returns the listing city.
func (l *Listing) City() string { return l.city }

// Category returns the marketplace category (may be empty).
func (l *Listing) Category() Category { return l.category }

// Features returns the feature list.
func (l *Listing) Features() []string { return l.features }

// UserID returns the owning user identifier.
func (l *Listing) UserID() string { return l.userID }

// Location returns the point location.
func (l *Listing) Location() Point { return l.location }

// Images returns the image URL list.
func (l *Listing) Images() []string { return l.images }

// PostedAt returns the posting timestamp.
func (l *Listing) PostedAt() time.Time { return l.postedAt }

// ExpiresAt returns the computed expiry timestamp (zero = never expires).
func (l *Listing) ExpiresAt() time.Time { return l.expiresAt }

// Embedding returns the semantic embedding vector (nil until computed).
func (l *Listing) Embedding() []float32 { return l.embedding }

// IsActive reports whether the listing has not expired at the given instant.
func (l *Listing) IsActive(now time.Time) bool {
	return l.expiresAt.IsZero() || l.expiresAt.After(now)
}

// WithEmbedding returns a copy with the embedding vector set.
func (l *Listing) WithEmbedding(v []float32) Listing {
	c := *l
	c.embedding = v
	return c
}

// WithoutEmbedding returns a copy with the embedding stripped (response shaping).
func (l *Listing) WithoutEmbedding() Listing {
	c := *l
	c.embedding = nil
	return c
}

// Apply merges non-nil update fields into a copy of the listing. A location
// update replaces the point; everything else overwrites field-wise.
func (l *Listing) Apply(u Update) (Listing, error) {
	c := *l
	if u.Title != nil {
		c.title = *u.Title
	}
	if u.Description != nil {
		c.description = *u.Description
	}
	if u.Price != nil {
		if *u.Price < 0 {
			return Listing{}, fmt.Errorf("%w: price must be non-negative", domain.ErrInvalidListing)
		}
		c.price = *u.Price
	}
	if u.Tags != nil {
		c.tags = cloneStrings(u.Tags)
	}
	if u.City != nil {
		c.city = *u.City
	}
	if u.Category != nil {
		if *u.Category != "" && !u.Category.IsValid() {
			return Listing{}, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidListing, *u.Category)
		}
		c.category = *u.Category
	}
	if u.Features != nil {
		c.features = cloneStrings(u.Features)
	}
	if u.Location != nil {
		if !geo.ValidateCoordinates(u.Location.Lat, u.Location.Lon) {
			return Listing{}, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidListing)
		}
		c.location = *u.Location
	}
	if u.Images != nil {
		c.images = cloneStrings(u.Images)
	}
	if c.title == "" {
		return Listing{}, fmt.Errorf("%w: title is required", domain.ErrInvalidListing)
	}
	return c, nil
}

// Update holds optional replacement fields; nil means "leave unchanged".
type Update struct {
	Title       *string
	Description *string
	Price       *float64
	Tags        []string
	City        *string
	Category    *Category
	Features    []string
	Location    *Point
	Images      []string
}

// AffectsCorpus reports whether applying the update changes the canonical
// corpus text, requiring an embedding refresh.
func (u Update) AffectsCorpus() bool {
	return u.Title != nil || u.Description != nil || u.Tags != nil ||
		u.City != nil || u.Category != nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
