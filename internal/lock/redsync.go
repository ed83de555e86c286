package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const retryDelay = 50 * time.Millisecond

// RedisLocker implements Locker on Redis via redsync. The lease is the mutex
// expiry, so a holder that dies mid-operation is released automatically.
type RedisLocker struct {
	rs *redsync.Redsync
}

// NewRedisLocker builds a locker backed by the given Redis client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	pool := goredis.NewPool(client)
	return &RedisLocker{rs: redsync.New(pool)}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, waitTimeout, leaseTime time.Duration) (Handle, error) {
	tries := int(waitTimeout/retryDelay) + 1
	mutex := l.rs.NewMutex(name,
		redsync.WithExpiry(leaseTime),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(retryDelay),
	)

	waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()
	if err := mutex.LockContext(waitCtx); err != nil {
		if errors.Is(err, redsync.ErrFailed) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, name)
		}
		return nil, fmt.Errorf("acquire %s: %w", name, err)
	}
	return &redisHandle{mutex: mutex}, nil
}

type redisHandle struct {
	mutex *redsync.Mutex
}

func (h *redisHandle) Release(ctx context.Context) error {
	ok, err := h.mutex.UnlockContext(ctx)
	if err != nil {
		// An expired lease already released itself.
		if errors.Is(err, redsync.ErrLockAlreadyExpired) {
			return nil
		}
		return fmt.Errorf("release %s: %w", h.mutex.Name(), err)
	}
	if !ok {
		return fmt.Errorf("release %s: lock was not held", h.mutex.Name())
	}
	return nil
}
