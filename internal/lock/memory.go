package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const pollInterval = time.Millisecond

// MemoryLocker implements Locker inside a single process with the same
// wait/lease semantics as the Redis-backed locker. Used by tests and by
// single-node runs where no Redis is configured.
type MemoryLocker struct {
	mu    sync.Mutex
	holds map[string]memoryHold
}

type memoryHold struct {
	token  string
	expiry time.Time
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		holds: make(map[string]memoryHold),
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, name string, waitTimeout, leaseTime time.Duration) (Handle, error) {
	deadline := time.Now().Add(waitTimeout)
	for {
		if handle, ok := l.tryAcquire(name, leaseTime); ok {
			return handle, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (l *MemoryLocker) tryAcquire(name string, leaseTime time.Duration) (Handle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	hold, held := l.holds[name]
	if held && time.Now().Before(hold.expiry) {
		return nil, false
	}
	token := uuid.NewString()
	l.holds[name] = memoryHold{token: token, expiry: time.Now().Add(leaseTime)}
	return &memoryHandle{locker: l, name: name, token: token}, true
}

type memoryHandle struct {
	locker *MemoryLocker
	name   string
	token  string
}

// Release frees the lock only if this handle still owns it; a lease that
// expired and was re-acquired by someone else is left alone.
func (h *memoryHandle) Release(_ context.Context) error {
	h.locker.mu.Lock()
	defer h.locker.mu.Unlock()

	if hold, ok := h.locker.holds[h.name]; ok && hold.token == h.token {
		delete(h.locker.holds, h.name)
	}
	return nil
}
