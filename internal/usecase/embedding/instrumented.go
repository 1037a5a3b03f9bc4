package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kazdex/bazaar/internal/domain"
	"github.com/kazdex/bazaar/internal/metrics"
)

// DefaultMaxAPIBatchSize caps one provider call during batch vectorization.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder wraps an Embedder with request metrics and logging.
// It sits between the cache decorator and the provider transport so cache
// hits never count as provider requests.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	model  string
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(inner domain.Embedder, model string, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{inner: inner, model: model, logger: logger}
}

// Embed delegates to the inner embedder and records request metrics.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)
	metrics.EmbeddingRequestDuration.WithLabelValues(p.model).Observe(duration.Seconds())

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.model, "error").Inc()
		p.logger.Error("Embedding request failed",
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(p.model, "ok").Inc()
	p.recordTokens(result.PromptTokens, result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// BatchEmbed splits the texts into provider-sized chunks and delegates each.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	var all [][]float32
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(texts); offset += DefaultMaxAPIBatchSize {
		end := offset + DefaultMaxAPIBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		chunk, err := p.embedInner(ctx, texts[offset:end])
		if err != nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues(p.model, "error").Inc()
			p.logger.Error("Batch embedding request failed",
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", end-offset),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		all = append(all, chunk.Embeddings...)
		totalPrompt += chunk.PromptTokens
		totalTokens += chunk.TotalTokens
	}

	duration := time.Since(start)
	metrics.EmbeddingRequestDuration.WithLabelValues(p.model).Observe(duration.Seconds())
	metrics.EmbeddingRequestsTotal.WithLabelValues(p.model, "ok").Inc()
	p.recordTokens(totalPrompt, totalTokens)

	p.logger.Debug("Batch embedding completed",
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", totalTokens),
	)

	return domain.BatchEmbeddingResult{
		Embeddings:   all,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

func (p *InstrumentedEmbedder) embedInner(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := p.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, p.inner, texts)
}

func (p *InstrumentedEmbedder) recordTokens(prompt, total int) {
	if prompt > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(p.model, "prompt").Add(float64(prompt))
	}
	if total > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(p.model, "total").Add(float64(total))
	}
}
