package listing

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kazdex/bazaar/internal/domain"
	"github.com/kazdex/bazaar/internal/domain/geo"
)

// Stored hash field names. The search index definitions in the db layer and
// the decoding below both depend on these.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldTags        = "tags"
	FieldCity        = "city"
	FieldCategory    = "category"
	FieldFeatures    = "features"
	FieldUserID      = "user_id"
	FieldLocation    = "location"
	FieldImages      = "images"
	FieldPostedAt    = "posted_at"
	FieldExpiresAt   = "expires_at"
	FieldEmbedding   = "embedding"
)

// TagSeparator joins tag values inside the stored tags field. It matches the
// TAG separator declared on the search index.
const TagSeparator = ","

// Fields encodes the listing into flat hash fields for storage.
func (l *Listing) Fields() map[string]string {
	f := map[string]string{
		FieldTitle:       l.title,
		FieldDescription: l.description,
		FieldPrice:       strconv.FormatFloat(l.price, 'f', -1, 64),
		FieldCity:        l.city,
		FieldUserID:      l.userID,
		FieldLocation:    encodePoint(l.location),
		FieldPostedAt:    strconv.FormatInt(l.postedAt.Unix(), 10),
		FieldExpiresAt:   encodeExpiry(l.expiresAt),
	}
	if l.category != "" {
		f[FieldCategory] = string(l.category)
	}
	if len(l.tags) > 0 {
		f[FieldTags] = strings.Join(l.tags, TagSeparator)
	}
	if len(l.features) > 0 {
		f[FieldFeatures] = encodeJSONList(l.features)
	}
	if len(l.images) > 0 {
		f[FieldImages] = encodeJSONList(l.images)
	}
	if len(l.embedding) > 0 {
		f[FieldEmbedding] = EncodeVector(l.embedding)
	}
	return f
}

// FromFields hydrates a Listing from stored hash fields and validates it
// against the output schema. Legacy or partially written documents fail with
// an error wrapping ErrMalformedListing; callers at the sanitizer boundary
// drop such documents instead of aborting the batch.
func FromFields(id string, fields map[string]string) (Listing, error) {
	if id == "" {
		return Listing{}, fmt.Errorf("%w: empty id", domain.ErrMalformedListing)
	}
	title := fields[FieldTitle]
	if title == "" {
		return Listing{}, fmt.Errorf("%w: %s: missing title", domain.ErrMalformedListing, id)
	}
	description := fields[FieldDescription]
	if description == "" {
		return Listing{}, fmt.Errorf("%w: %s: missing description", domain.ErrMalformedListing, id)
	}
	city := fields[FieldCity]
	if city == "" {
		return Listing{}, fmt.Errorf("%w: %s: missing city", domain.ErrMalformedListing, id)
	}
	userID := fields[FieldUserID]
	if userID == "" {
		return Listing{}, fmt.Errorf("%w: %s: missing user id", domain.ErrMalformedListing, id)
	}

	price, err := strconv.ParseFloat(fields[FieldPrice], 64)
	if err != nil || price < 0 {
		return Listing{}, fmt.Errorf("%w: %s: bad price %q", domain.ErrMalformedListing, id, fields[FieldPrice])
	}

	location, err := decodePoint(fields[FieldLocation])
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedListing, id, err)
	}

	category := Category(fields[FieldCategory])
	if category != "" && !category.IsValid() {
		return Listing{}, fmt.Errorf("%w: %s: unknown category %q", domain.ErrMalformedListing, id, category)
	}

	var tags []string
	if raw := fields[FieldTags]; raw != "" {
		tags = strings.Split(raw, TagSeparator)
	}

	features, err := decodeJSONList(fields[FieldFeatures])
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %s: bad features: %v", domain.ErrMalformedListing, id, err)
	}
	images, err := decodeJSONList(fields[FieldImages])
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %s: bad images: %v", domain.ErrMalformedListing, id, err)
	}

	postedAt, err := decodeUnix(fields[FieldPostedAt])
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %s: bad posted_at: %v", domain.ErrMalformedListing, id, err)
	}
	expiresAt, err := decodeUnix(fields[FieldExpiresAt])
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %s: bad expires_at: %v", domain.ErrMalformedListing, id, err)
	}

	var embedding []float32
	if raw := fields[FieldEmbedding]; raw != "" {
		embedding, err = DecodeVector(raw)
		if err != nil {
			return Listing{}, fmt.Errorf("%w: %s: bad embedding: %v", domain.ErrMalformedListing, id, err)
		}
	}

	return Reconstruct(
		id, title, description, price, tags, city, category, features,
		userID, location, images, postedAt, expiresAt, embedding,
	), nil
}

// EncodeVector serializes an embedding as little-endian float32 bytes.
func EncodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector deserializes a little-endian float32 byte string.
func DecodeVector(s string) ([]float32, error) {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data: len=%d", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// encodePoint uses the "lon,lat" form expected by GEO index fields.
func encodePoint(p Point) string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}

func decodePoint(s string) (Point, error) {
	lonStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("bad location %q", s)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad longitude %q", lonStr)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad latitude %q", latStr)
	}
	if !geo.ValidateCoordinates(lat, lon) {
		return Point{}, fmt.Errorf("coordinates out of range: %q", s)
	}
	return Point{Lon: lon, Lat: lat}, nil
}

func encodeExpiry(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func decodeUnix(s string) (time.Time, error) {
	if s == "" || s == "0" {
		return time.Time{}, nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", s)
	}
	return time.Unix(sec, 0).UTC(), nil
}

func encodeJSONList(items []string) string {
	data, _ := json.Marshal(items)
	return string(data)
}

func decodeJSONList(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}
