package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-content-assistant/internal/domain"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 250 * time.Millisecond
)

// withRetry runs fn up to retryAttempts times with bounded exponential
// backoff. Used around storage calls so a transient failure does not cost
// the user their turn. Domain sentinels are final answers, not faults, and
// return immediately.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	delay := retryBaseDelay
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) ||
			errors.Is(err, domain.ErrUserNotFound) ||
			errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		if attempt == retryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
