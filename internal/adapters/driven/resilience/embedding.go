package resilience

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService puts an embedding provider behind a limiter and a breaker.
type EmbeddingService struct {
	next    driven.EmbeddingService
	limiter *RateLimiter
	breaker *Breaker
}

// WrapEmbedding decorates next. A nil limiter disables rate limiting.
func WrapEmbedding(next driven.EmbeddingService, limiter *RateLimiter, breaker *Breaker) *EmbeddingService {
	return &EmbeddingService{next: next, limiter: limiter, breaker: breaker}
}

// Embed takes one limiter token.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	return guarded(ctx, s.limiter, s.breaker, func() ([]float32, error) {
		return s.next.Embed(ctx, text)
	})
}

// EmbedBatch takes one limiter token for the whole batch.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return guarded(ctx, s.limiter, s.breaker, func() ([][]float32, error) {
		return s.next.EmbedBatch(ctx, texts)
	})
}

func (s *EmbeddingService) Dimensions() int   { return s.next.Dimensions() }
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }
func (s *EmbeddingService) Close() error      { return s.next.Close() }

// Ping skips the limiter and the breaker, so a tripped provider can still
// be checked from the settings wizard.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
