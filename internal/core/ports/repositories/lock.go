package repositories

import (
	"context"
	"time"
)

// Lock is a held distributed lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains short-lived exclusive locks by key.
// Obtain returns apperrors.ErrConcurrencyConflict when the key is held elsewhere.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}
