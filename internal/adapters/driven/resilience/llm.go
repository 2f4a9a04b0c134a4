package resilience

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

// LLMService puts a language model behind a limiter and a breaker.
type LLMService struct {
	next    driven.LLMService
	limiter *RateLimiter
	breaker *Breaker
}

// WrapLLM decorates next. A nil limiter disables rate limiting.
func WrapLLM(next driven.LLMService, limiter *RateLimiter, breaker *Breaker) *LLMService {
	return &LLMService{next: next, limiter: limiter, breaker: breaker}
}

// Generate takes one limiter token.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return guarded(ctx, s.limiter, s.breaker, func() (string, error) {
		return s.next.Generate(ctx, prompt, opts)
	})
}

func (s *LLMService) ModelName() string { return s.next.ModelName() }
func (s *LLMService) Close() error      { return s.next.Close() }

// Ping skips the limiter and the breaker.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
