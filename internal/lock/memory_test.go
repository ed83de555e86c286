package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryLockerMutualExclusion(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	first, err := locker.Acquire(ctx, "room:1", 100*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := locker.Acquire(ctx, "room:1", 20*time.Millisecond, time.Second); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout while held, got %v", err)
	}

	// A different name is independent.
	other, err := locker.Acquire(ctx, "room:2", 20*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("acquire of independent name failed: %v", err)
	}
	_ = other.Release(ctx)

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Released lock is immediately acquirable again.
	second, err := locker.Acquire(ctx, "room:1", 20*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	_ = second.Release(ctx)
}

func TestMemoryLockerLeaseExpiry(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	stale, err := locker.Acquire(ctx, "room:1", 50*time.Millisecond, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	// Never released; the lease must expire on its own.
	fresh, err := locker.Acquire(ctx, "room:1", 200*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("expected lease expiry to free the lock, got %v", err)
	}

	// The stale handle no longer owns the lock; its release must not steal it.
	_ = stale.Release(ctx)
	if _, err := locker.Acquire(ctx, "room:1", 10*time.Millisecond, time.Second); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected lock still held by fresh handle, got %v", err)
	}
	_ = fresh.Release(ctx)
}

func TestMemoryLockerSerializesCounter(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle, err := locker.Acquire(ctx, "counter", time.Second, time.Second)
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			counter++
			_ = handle.Release(ctx)
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
}

func TestMemoryLockerContextCancel(t *testing.T) {
	locker := NewMemoryLocker()
	handle, err := locker.Acquire(context.Background(), "room:1", 50*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer handle.Release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := locker.Acquire(ctx, "room:1", time.Second, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
