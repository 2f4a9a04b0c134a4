package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// withTimeout derives a context bounded by d. A non-positive d uses the default.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = domain.DefaultCallTimeout
	}
	return context.WithTimeout(ctx, d)
}

// classify wraps err with kind. Deadline expiry is additionally marked as ErrTimeout.
// Cancellation by the caller is returned unchanged so it is not reported as a service failure.
func classify(kind error, stage string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", stage, errors.Join(kind, domain.ErrTimeout, err))
	case errors.Is(err, kind):
		return fmt.Errorf("%s: %w", stage, err)
	default:
		return fmt.Errorf("%s: %w: %w", stage, kind, err)
	}
}
