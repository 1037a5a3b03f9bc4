// Package search implements the ranking engine: per-mode candidate
// retrieval, weighted score fusion, and result sanitization.
package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kazdex/bazaar/internal/domain"
	"github.com/kazdex/bazaar/internal/domain/listing"
	"github.com/kazdex/bazaar/internal/domain/search/candidate"
	"github.com/kazdex/bazaar/internal/domain/search/expand"
	"github.com/kazdex/bazaar/internal/domain/search/fusion"
	"github.com/kazdex/bazaar/internal/domain/search/mode"
	"github.com/kazdex/bazaar/internal/domain/search/request"
	"github.com/kazdex/bazaar/internal/logger"
	"github.com/kazdex/bazaar/internal/metrics"
)

// OverFetchFactor is how far retrieval exceeds the requested page so the
// sanitizer can drop malformed documents without starving the page.
const OverFetchFactor = 2

// Result is a sanitized search hit: the listing with its embedding stripped,
// the fused ranking score, and the geo distance when one was observed.
type Result struct {
	Listing        listing.Listing
	Score          float64
	DistanceMeters *float64
}

// Service executes listing searches across lexical, geo, semantic, hybrid,
// and advanced modes.
type Service struct {
	retr            Retriever
	embed           Embedder
	semanticEnabled bool
	now             func() time.Time
}

// New creates a search service. embed may be nil only when semanticEnabled
// is false.
func New(retr Retriever, embed Embedder, semanticEnabled bool) *Service {
	return &Service{
		retr:            retr,
		embed:           embed,
		semanticEnabled: semanticEnabled,
		now:             time.Now,
	}
}

// WithClock overrides the time source; tests pin liveness checks with it.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Search runs the full pipeline: retrieval per mode, fusion, min-score
// cut-off, and sanitized pagination.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]Result, error) {
	if req.Mode().NeedsEmbedding() && !s.semanticEnabled {
		return nil, fmt.Errorf("%w: mode %s", domain.ErrSemanticDisabled, req.Mode())
	}

	activeAt := s.now().Unix()
	fetchK := (req.Skip() + req.Limit()) * OverFetchFactor

	var (
		cands   []*candidate.Candidate
		weights fusion.Weights
		err     error
	)

	switch req.Mode() {
	case mode.Lexical:
		cands, err = s.retrieveLexical(ctx, req, activeAt, fetchK)
		weights = fusion.Weights{Lexical: 1}
	case mode.Geo:
		cands, err = s.retrieveGeo(ctx, req, activeAt, fetchK)
		weights = fusion.Weights{Proximity: 1}
	case mode.Semantic:
		cands, err = s.retrieveSemantic(ctx, req, activeAt)
		weights = fusion.Weights{Semantic: 1}
	case mode.Hybrid:
		cands, err = s.retrieveHybrid(ctx, req, activeAt, fetchK)
		weights = s.hybridWeights(req)
	case mode.Advanced:
		cands, err = s.retrieveLexical(ctx, req, activeAt, fetchK)
		weights = fusion.AdvancedWeights()
	default:
		err = fmt.Errorf("%w: unsupported mode %q", domain.ErrInvalidRequest, req.Mode())
	}
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "error").Inc()
		return nil, err
	}

	if req.Sort() != request.SortRelevance {
		sortByField(cands, req.Sort())
		results := sanitize(ctx, cands, req.Skip(), req.Limit())
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "ok").Inc()
		return results, nil
	}

	cands = fusion.Fuse(cands, weights, req.RadiusMeters())

	if min := req.MinScore(); min > 0 {
		kept := cands[:0]
		for _, c := range cands {
			if c.Score >= min {
				kept = append(kept, c)
			}
		}
		cands = kept
	}

	results := sanitize(ctx, cands, req.Skip(), req.Limit())
	metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "ok").Inc()
	return results, nil
}

func (s *Service) retrieveLexical(
	ctx context.Context, req *request.Request, activeAt int64, topK int,
) ([]*candidate.Candidate, error) {
	terms := strings.Split(expand.Query(req.Query()), expand.Delimiter)
	raw, err := s.retr.SearchText(ctx, terms, req.Filters(), activeAt, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: lexical: %v", domain.ErrSearchUnavailable, err)
	}
	return toPtrs(raw), nil
}

func (s *Service) retrieveGeo(
	ctx context.Context, req *request.Request, activeAt int64, topK int,
) ([]*candidate.Candidate, error) {
	raw, err := s.retr.SearchNear(ctx, req.Filters(), activeAt, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: geo: %v", domain.ErrSearchUnavailable, err)
	}
	return toPtrs(raw), nil
}

func (s *Service) retrieveSemantic(
	ctx context.Context, req *request.Request, activeAt int64,
) ([]*candidate.Candidate, error) {
	vec, err := s.embedQuery(ctx, req.Query())
	if err != nil {
		return nil, err
	}
	raw, err := s.retr.SearchSemantic(ctx, vec, req.Filters(), activeAt)
	if err != nil {
		return nil, fmt.Errorf("%w: semantic: %v", domain.ErrSearchUnavailable, err)
	}
	return toPtrs(raw), nil
}

// retrieveHybrid issues the lexical and semantic retrievals concurrently.
// A failing signal degrades with a warning instead of failing the request;
// only both signals failing is a hard error.
func (s *Service) retrieveHybrid(
	ctx context.Context, req *request.Request, activeAt int64, topK int,
) ([]*candidate.Candidate, error) {
	log := logger.FromContext(ctx)

	var (
		lexical  []candidate.Candidate
		semantic []candidate.Candidate
		lexErr   error
		semErr   error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		terms := strings.Split(expand.Query(req.Query()), expand.Delimiter)
		lexical, lexErr = s.retr.SearchText(gctx, terms, req.Filters(), activeAt, topK)
		return nil
	})

	g.Go(func() error {
		vec, err := s.embedQuery(gctx, req.Query())
		if err != nil {
			semErr = err
			return nil
		}
		semantic, semErr = s.retr.SearchSemantic(gctx, vec, req.Filters(), activeAt)
		return nil
	})

	_ = g.Wait()

	if lexErr != nil {
		log.Warn("Lexical signal degraded", zap.Error(lexErr))
		metrics.SearchSignalDegradedTotal.WithLabelValues("lexical").Inc()
	}
	if semErr != nil {
		log.Warn("Semantic signal degraded", zap.Error(semErr))
		metrics.SearchSignalDegradedTotal.WithLabelValues("semantic").Inc()
	}
	if lexErr != nil && semErr != nil {
		return nil, fmt.Errorf("%w: all signals failed", domain.ErrSearchUnavailable)
	}

	return mergeCandidates(lexical, semantic), nil
}

// embedQuery expands the raw query and vectorizes the expanded text, so the
// query-side vocabulary matches the corpus-side expansion.
func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	res, err := s.embed.Embed(ctx, expand.Query(query))
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return res.Embedding, nil
}

// hybridWeights resolves the caller-supplied weights, falling back to the
// default text/semantic split when neither was supplied.
func (s *Service) hybridWeights(req *request.Request) fusion.Weights {
	text, semantic := req.TextWeight(), req.SemanticWeight()
	if text == 0 && semantic == 0 {
		text, semantic = fusion.DefaultHybridText, fusion.DefaultHybridSemantic
	}
	return fusion.HybridWeights(text, semantic)
}

// mergeCandidates unions two retrieval sets by document id, combining the
// signals of documents found by both. Order is first-seen: the lexical set,
// then semantic-only documents.
func mergeCandidates(lexical, semantic []candidate.Candidate) []*candidate.Candidate {
	out := make([]*candidate.Candidate, 0, len(lexical)+len(semantic))
	byID := make(map[string]*candidate.Candidate, len(lexical))

	for i := range lexical {
		c := lexical[i]
		out = append(out, &c)
		byID[c.ID] = &c
	}
	for i := range semantic {
		c := semantic[i]
		if existing, ok := byID[c.ID]; ok {
			existing.MergeSignals(&c)
			continue
		}
		out = append(out, &c)
		byID[c.ID] = &c
	}
	return out
}

// sortByField orders candidates by the stored field the caller requested
// instead of the fused score: post date newest-first, price cheapest-first.
func sortByField(cands []*candidate.Candidate, by request.Sort) {
	switch by {
	case request.SortDate:
		sort.SliceStable(cands, func(i, j int) bool {
			return fieldFloat(cands[i], listing.FieldPostedAt) > fieldFloat(cands[j], listing.FieldPostedAt)
		})
	case request.SortPrice:
		sort.SliceStable(cands, func(i, j int) bool {
			return fieldFloat(cands[i], listing.FieldPrice) < fieldFloat(cands[j], listing.FieldPrice)
		})
	}
}

func fieldFloat(c *candidate.Candidate, field string) float64 {
	f, err := strconv.ParseFloat(c.Fields[field], 64)
	if err != nil {
		return 0
	}
	return f
}

func toPtrs(cands []candidate.Candidate) []*candidate.Candidate {
	out := make([]*candidate.Candidate, len(cands))
	for i := range cands {
		out[i] = &cands[i]
	}
	return out
}
