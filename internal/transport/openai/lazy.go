package openai

import (
	"context"
	"fmt"
	"sync"

	"github.com/kazdex/bazaar/internal/domain"
)

// LazyEmbedder defers provider construction to the first embedding call, so
// the process starts even when the provider credentials are absent or wrong.
// Lexical and geo searches keep working; only semantic calls surface the
// initialization failure, wrapped in domain.ErrEmbeddingUnavailable.
type LazyEmbedder struct {
	once  sync.Once
	build func() (domain.Embedder, error)
	inner domain.Embedder
	err   error
}

// NewLazyEmbedder wraps a provider factory. The factory runs at most once.
func NewLazyEmbedder(build func() (domain.Embedder, error)) *LazyEmbedder {
	return &LazyEmbedder{build: build}
}

func (l *LazyEmbedder) get() (domain.Embedder, error) {
	l.once.Do(func() {
		l.inner, l.err = l.build()
	})
	if l.err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, l.err)
	}
	return l.inner, nil
}

// Embed initializes the provider on first use and delegates.
func (l *LazyEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	inner, err := l.get()
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return inner.Embed(ctx, text)
}

// BatchEmbed initializes the provider on first use and delegates, falling
// back to per-text calls when the provider has no native batch support.
func (l *LazyEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	inner, err := l.get()
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	if be, ok := inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, inner, texts)
}

// HealthCheck initializes the provider on first use and probes it when the
// provider supports health checks.
func (l *LazyEmbedder) HealthCheck(ctx context.Context) error {
	inner, err := l.get()
	if err != nil {
		return err
	}
	if hc, ok := inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
