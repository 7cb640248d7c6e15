package lock

import (
	"context"
	"time"
)

// Locker is the mutual-exclusion primitive used around check-then-write
// booking sequences and the scheduled cache maintenance run. TryAcquire
// waits at most the given timeout and reports whether the lock was won; a
// loser is expected to skip or reject rather than queue indefinitely.
type Locker interface {
	TryAcquire(ctx context.Context, name string, timeout time.Duration) (Handle, bool, error)
}

// Handle releases a held lock.
type Handle interface {
	Release(ctx context.Context) error
}
