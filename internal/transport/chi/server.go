// Package chi implements the HTTP API over the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kazdex/bazaar/internal/domain"
	domlisting "github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/mode"
	"github.com/kazdex/bazaar/internal/domain/search/request"
	healthuc "github.com/kazdex/bazaar/internal/usecase/health"
	listinguc "github.com/kazdex/bazaar/internal/usecase/listing"
	searchuc "github.com/kazdex/bazaar/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the listing and search services over HTTP.
type Server struct {
	listings      *listinguc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	listings *listinguc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		listings: listings,
		search:   search,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrListingNotFound, http.StatusNotFound, codeListingNotFound),
		sentinelHandler(domain.ErrNotOwner, http.StatusForbidden, codeNotOwner),
		sentinelHandler(domain.ErrInvalidListing, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrMalformedListing, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrSemanticDisabled, http.StatusNotImplemented, codeSemanticDisabled),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable, codeSearchUnavailable),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, codeEmbeddingUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
	}
	return s
}

// Routes mounts all API routes onto the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/listings", func(r chi.Router) {
		r.Post("/", s.createListing)
		r.Get("/", s.browseListings)
		r.Get("/nearby", s.nearbyListings)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getListing)
			r.Put("/", s.updateListing)
			r.Delete("/", s.deleteListing)
		})
	})
	r.Get("/users/{userID}/listings", s.userListings)
	r.Get("/search", s.searchListings)
}

// createListing handles POST /listings.
func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "user_id is required")
		return
	}

	l, err := s.listings.Create(r.Context(), req.UserID, listinguc.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Tags:        req.Tags,
		City:        req.City,
		Category:    domlisting.Category(req.Category),
		Features:    req.Features,
		Location:    domlisting.Point{Lon: req.Location.Lon, Lat: req.Location.Lat},
		Images:      req.Images,
		ExpiryDays:  req.ExpiryDays,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/listings/"+l.ID())
	writeJSON(w, http.StatusCreated, listingToDTO(&l))
}

// getListing handles GET /listings/{id}.
func (s *Server) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingToDTO(&l))
}

// updateListing handles PUT /listings/{id}.
func (s *Server) updateListing(w http.ResponseWriter, r *http.Request) {
	var req updateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "user_id is required")
		return
	}

	l, err := s.listings.Update(r.Context(), req.UserID, chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingToDTO(&l))
}

// deleteListing handles DELETE /listings/{id}. The acting user comes from the
// user_id query parameter: DELETE bodies are unreliable across proxies.
func (s *Server) deleteListing(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "user_id is required")
		return
	}

	if err := s.listings.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// browseListings handles GET /listings: filtered active listings, newest
// first.
func (s *Server) browseListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	skip, limit := pageParams(q)
	items, total, err := s.listings.Browse(r.Context(), f, skip, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingsPage(items, total, skip, limit))
}

// userListings handles GET /users/{userID}/listings: the owner's inventory,
// expired included.
func (s *Server) userListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, limit := pageParams(q)

	items, total, err := s.listings.ListByUser(r.Context(), chi.URLParam(r, "userID"), skip, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingsPage(items, total, skip, limit))
}

// nearbyListings handles GET /listings/nearby: pure proximity browse.
func (s *Server) nearbyListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	if !f.HasGeo() {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "lat and lon are required")
		return
	}

	req, err := request.New(request.Params{
		Mode:    mode.Geo,
		Filters: f,
		Skip:    queryInt(q, "skip"),
		Limit:   queryInt(q, "limit"),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchPage(results, &req))
}

// searchListings handles GET /search.
func (s *Server) searchListings(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r.URL.Query())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			s.handleDomainError(w, err)
		} else {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		}
		return
	}

	results, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchPage(results, &req))
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			s.logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrListingNotFound,
		domain.ErrNotOwner,
		domain.ErrInvalidListing,
		domain.ErrInvalidRequest,
		domain.ErrMalformedListing,
		domain.ErrSemanticDisabled,
		domain.ErrSearchUnavailable,
		domain.ErrEmbeddingUnavailable,
		domain.ErrEmbeddingProviderError,
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func listingsPage(items []domlisting.Listing, total, skip, limit int) listingListResponse {
	out := make([]listingResponse, len(items))
	for i := range items {
		out[i] = listingToDTO(&items[i])
	}
	return listingListResponse{Items: out, Total: total, Skip: skip, Limit: limit}
}

func searchPage(results []searchuc.Result, req *request.Request) searchResponse {
	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToDTO(&results[i])
	}
	return searchResponse{
		Items: items,
		Count: len(items),
		Mode:  string(req.Mode()),
		Query: req.Query(),
	}
}

func pageParams(q url.Values) (int, int) {
	return queryInt(q, "skip"), queryInt(q, "limit")
}
