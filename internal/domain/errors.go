package domain

import "errors"

// Sentinel errors shared across layers.
var (
	// ErrListingNotFound signals a missing listing.
	ErrListingNotFound = errors.New("listing not found")
	// ErrNotOwner signals a mutation attempt by a non-owning user.
	ErrNotOwner = errors.New("not the listing owner")
	// ErrInvalidListing signals a listing that fails domain validation on write.
	ErrInvalidListing = errors.New("invalid listing")
	// ErrMalformedListing signals a stored document that fails schema validation
	// on read. The sanitizer drops such documents instead of failing the batch.
	ErrMalformedListing = errors.New("malformed listing document")

	// ErrInvalidRequest signals unusable search parameters.
	ErrInvalidRequest = errors.New("invalid search request")
	// ErrSearchUnavailable signals that every signal required by the requested
	// mode failed, so nothing can be ranked.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrSemanticDisabled signals that semantic search is disabled at the
	// process level while the request requires it.
	ErrSemanticDisabled = errors.New("semantic search disabled")

	// ErrEmbeddingUnavailable signals that the embedding provider could not be
	// initialized. Distinct from runtime provider failures so callers can fail
	// only semantic/hybrid modes.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	// ErrEmbeddingProviderError signals a runtime embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
