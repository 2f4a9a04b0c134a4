// Package resilience wraps AI providers with rate limiting and circuit breaking.
//
// A provider that keeps failing trips its breaker, after which calls fail fast
// with ErrOpenState until the breaker's timeout elapses. Cancelled and
// throttled calls never count as failures; a throttle instead pauses the
// provider's rate limiter for the time the provider asked for.
package resilience
