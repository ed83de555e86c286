package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLockTimeout is returned when the wait timeout elapses before the lock is
// granted. Callers may retry with backoff.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Handle represents a held lock.
type Handle interface {
	// Release frees the lock. Releasing a lock whose lease already expired is
	// not an error.
	Release(ctx context.Context) error
}

// Locker hands out named, lease-bound mutual-exclusion locks shared between
// every process touching the store. A lock not released within leaseTime
// expires on its own, so a crashed holder can't wedge the system.
type Locker interface {
	Acquire(ctx context.Context, name string, waitTimeout, leaseTime time.Duration) (Handle, error)
}
