package chi

import (
	"time"

	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
	searchuc "github.com/kazdex/bazaar/internal/usecase/search"
)

// errorCode identifies the error class in API responses.
type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeValidationFailed     errorCode = "validation_failed"
	codeUnauthorized         errorCode = "unauthorized"
	codeNotOwner             errorCode = "not_owner"
	codeListingNotFound      errorCode = "listing_not_found"
	codeSemanticDisabled     errorCode = "semantic_disabled"
	codeSearchUnavailable    errorCode = "search_unavailable"
	codeEmbeddingUnavailable errorCode = "embedding_unavailable"
	codeEmbeddingProvider    errorCode = "embedding_provider_error"
	codeInternalError        errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type pointDTO struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type createListingRequest struct {
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Tags        []string `json:"tags,omitempty"`
	City        string   `json:"city"`
	Category    string   `json:"category,omitempty"`
	Features    []string `json:"features,omitempty"`
	Location    pointDTO `json:"location"`
	Images      []string `json:"images,omitempty"`
	ExpiryDays  int      `json:"expiry_days,omitempty"`
}

type updateListingRequest struct {
	UserID      string    `json:"user_id"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	City        *string   `json:"city,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Features    []string  `json:"features,omitempty"`
	Location    *pointDTO `json:"location,omitempty"`
	Images      []string  `json:"images,omitempty"`
}

type listingResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Tags        []string  `json:"tags,omitempty"`
	City        string    `json:"city"`
	Category    string    `json:"category,omitempty"`
	Features    []string  `json:"features,omitempty"`
	UserID      string    `json:"user_id"`
	Location    pointDTO  `json:"location"`
	Images      []string  `json:"images,omitempty"`
	PostedAt    time.Time `json:"posted_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type listingListResponse struct {
	Items []listingResponse `json:"items"`
	Total int               `json:"total"`
	Skip  int               `json:"skip"`
	Limit int               `json:"limit"`
}

type searchResultItem struct {
	listingResponse
	Score          float64  `json:"score"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Count int                `json:"count"`
	Mode  string             `json:"mode"`
	Query string             `json:"query,omitempty"`
}

func listingToDTO(l *domlisting.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID(),
		Title:       l.Title(),
		Description: l.Description(),
		Price:       l.Price(),
		Tags:        l.Tags(),
		City:        l.City(),
		Category:    string(l.Category()),
		Features:    l.Features(),
		UserID:      l.UserID(),
		Location:    pointDTO{Lon: l.Location().Lon, Lat: l.Location().Lat},
		Images:      l.Images(),
		PostedAt:    l.PostedAt().UTC(),
		ExpiresAt:   l.ExpiresAt().UTC(),
	}
}

func searchResultToDTO(r *searchuc.Result) searchResultItem {
	return searchResultItem{
		listingResponse: listingToDTO(&r.Listing),
		Score:           r.Score,
		DistanceMeters:  r.DistanceMeters,
	}
}

func (req *updateListingRequest) toUpdate() domlisting.Update {
	u := domlisting.Update{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Tags:        req.Tags,
		City:        req.City,
		Features:    req.Features,
		Images:      req.Images,
	}
	if req.Category != nil {
		c := domlisting.Category(*req.Category)
		u.Category = &c
	}
	if req.Location != nil {
		u.Location = &domlisting.Point{Lon: req.Location.Lon, Lat: req.Location.Lat}
	}
	return u
}
