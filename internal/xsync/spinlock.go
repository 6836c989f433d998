// Package xsync holds two lock shapes used across the meta-input and
// meta-output aggregators: a non-blocking try-once gate for meta-input
// refreshes, and a short spin lock that yields to the scheduler
// between attempts for meta-output transitions and accounting reads.
// Neither ever parks a goroutine on a channel or mutex: callers that
// lose the race either proceed with stale cached state (try-once) or
// retry, calling runtime.Gosched after each failed attempt (spin lock).
package xsync

import (
	"runtime"
	"sync/atomic"
)

// TryOnce is a single non-blocking test-and-set gate. TryAcquire
// reports whether the caller won the race; it never blocks or
// retries, so a loser simply continues and is expected to read
// whatever cached state already exists.
type TryOnce struct {
	held atomic.Bool
}

func (t *TryOnce) TryAcquire() bool { return t.held.CompareAndSwap(false, true) }
func (t *TryOnce) Release()         { t.held.Store(false) }

// SpinLock is a short critical-section lock. Acquire retries a
// compare-and-swap until it succeeds, calling runtime.Gosched after
// every failed attempt; there is no backoff schedule and no limit on
// how long it keeps retrying. It never parks on a channel or
// sync.Mutex, matching the source's µs-scale spin design for the relay
// transition/accounting critical sections, where contention is
// expected to be rare and brief (a single writer plus occasional
// accounting readers).
type SpinLock struct {
	held atomic.Bool
}

func (l *SpinLock) Acquire() {
	for !l.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (l *SpinLock) Release() { l.held.Store(false) }
