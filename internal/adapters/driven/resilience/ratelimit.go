package resilience

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// DefaultThrottleBackoff applies when a provider throttles without saying
// for how long.
const DefaultThrottleBackoff = 5 * time.Second

// maxThrottleBackoff caps what a provider can ask for.
const maxThrottleBackoff = 2 * time.Minute

// RateLimitConfig is a token bucket: Rate calls per second on average,
// up to Burst at once.
type RateLimitConfig struct {
	Rate  float64
	Burst int
}

// DefaultRateLimits are per provider. Local Ollama only needs the burst cap.
var DefaultRateLimits = map[domain.AIProvider]RateLimitConfig{
	domain.AIProviderAnthropic: {Rate: 5, Burst: 10},
	domain.AIProviderBedrock:   {Rate: 10, Burst: 20},
	domain.AIProviderOpenAI:    {Rate: 20, Burst: 40},
	domain.AIProviderOllama:    {Rate: 100, Burst: 100},
}

var fallbackRateLimit = RateLimitConfig{Rate: 5, Burst: 10}

// RateLimiter spaces calls to one provider and pauses them all after the
// provider throttles.
type RateLimiter struct {
	bucket *rate.Limiter
	now    func() time.Time

	mu         sync.Mutex
	pauseUntil time.Time
}

// NewRateLimiter uses the provider's entry in DefaultRateLimits.
func NewRateLimiter(provider domain.AIProvider) *RateLimiter {
	cfg, ok := DefaultRateLimits[provider]
	if !ok {
		cfg = fallbackRateLimit
	}
	return NewRateLimiterWithConfig(cfg)
}

// NewRateLimiterWithConfig uses cfg.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		now:    time.Now,
	}
}

// Wait blocks until a call may start: after any pause, then for a token.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if d := r.paused(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return r.bucket.Wait(ctx)
}

// Allow takes a token if one is free and no pause is in effect.
func (r *RateLimiter) Allow() bool {
	return r.paused() <= 0 && r.bucket.Allow()
}

// Backoff pauses every call for d. A shorter pause never cuts a longer one.
func (r *RateLimiter) Backoff(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if until := r.now().Add(d); until.After(r.pauseUntil) {
		r.pauseUntil = until
	}
}

// Observe pauses calls when err is a throttle refusal, for as long as the
// provider asked, capped at two minutes.
func (r *RateLimiter) Observe(err error) {
	var te *domain.ThrottleError
	if !errors.As(err, &te) {
		return
	}
	d := te.After
	if d <= 0 {
		d = DefaultThrottleBackoff
	}
	r.Backoff(min(d, maxThrottleBackoff))
}

func (r *RateLimiter) paused() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pauseUntil.Sub(r.now())
}

// Throttled wraps err from a 429 response as a *domain.ThrottleError,
// reading the wait from the Retry-After header.
func Throttled(h http.Header, err error) error {
	return &domain.ThrottleError{After: retryAfter(h.Get("Retry-After"), time.Now()), Err: err}
}

// retryAfter accepts both forms of the header: delay seconds or an HTTP date.
func retryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(at.Sub(now), 0)
	}
	return 0
}
