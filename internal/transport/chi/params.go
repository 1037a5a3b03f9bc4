package chi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/filter"
	"github.com/kazdex/bazaar/internal/domain/search/mode"
	"github.com/kazdex/bazaar/internal/domain/search/request"
)

// parseFilter builds the conjunctive pre-filter from query parameters:
// city, category, tags (comma-separated), lat/lon/radius_km.
func parseFilter(q url.Values) (filter.Filter, error) {
	var tags []string
	if raw := q.Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	circle, err := parseCircle(q)
	if err != nil {
		return filter.Filter{}, err
	}

	f, err := filter.New(q.Get("city"), domlisting.Category(q.Get("category")), tags, circle)
	if err != nil {
		return filter.Filter{}, fmt.Errorf("invalid filter: %w", err)
	}
	return f, nil
}

// parseCircle reads lat/lon/radius_km. Coordinates must come as a pair; a
// missing or non-positive radius falls back to the default.
func parseCircle(q url.Values) (*filter.Circle, error) {
	latRaw, lonRaw := q.Get("lat"), q.Get("lon")
	if latRaw == "" && lonRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lonRaw == "" {
		return nil, fmt.Errorf("lat and lon must be provided together")
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat %q", latRaw)
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lon %q", lonRaw)
	}

	radius := float64(request.DefaultRadiusMeters)
	if raw := q.Get("radius_km"); raw != "" {
		km, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid radius_km %q", raw)
		}
		if km > 0 {
			radius = km * 1000
		}
	}

	return &filter.Circle{
		Center:       domlisting.Point{Lon: lon, Lat: lat},
		RadiusMeters: radius,
	}, nil
}

// parseSearchRequest builds a validated search request from query parameters.
func parseSearchRequest(q url.Values) (request.Request, error) {
	f, err := parseFilter(q)
	if err != nil {
		return request.Request{}, err
	}

	var minScore *float64
	if raw := q.Get("min_score"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			minScore = &v
		}
	}

	return request.New(request.Params{
		Query:          q.Get("q"),
		Mode:           mode.Mode(q.Get("mode")),
		Filters:        f,
		TextWeight:     queryFloat(q, "text_weight"),
		SemanticWeight: queryFloat(q, "semantic_weight"),
		MinScore:       minScore,
		Sort:           request.Sort(q.Get("sort")),
		Skip:           queryInt(q, "skip"),
		Limit:          queryInt(q, "limit"),
	})
}

// queryInt parses an integer parameter; absent or malformed values map to 0,
// which downstream validation treats as "use default".
func queryInt(q url.Values, key string) int {
	v, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return 0
	}
	return v
}

func queryFloat(q url.Values, key string) float64 {
	v, err := strconv.ParseFloat(q.Get(key), 64)
	if err != nil {
		return 0
	}
	return v
}
