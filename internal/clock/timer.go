package clock

import (
	"sync/atomic"
	"time"
)

// Timer is a countdown against a Source.
//
// It does not fire anything: callers poll Expired from their own loops,
// which is how retry loops around the queue are bounded. Expired and
// Remaining are safe for concurrent use; Reset may race with them and
// callers then observe either the old or the new deadline.
type Timer struct {
	src      Source
	deadline atomic.Uint64
}

// NewTimer creates a Timer that expires d from now.
func NewTimer(src Source, d time.Duration) *Timer {
	t := &Timer{src: src}
	t.Reset(d)
	return t
}

// Expired returns true once the deadline has been reached.
func (t *Timer) Expired() bool {
	return t.src.NowNs() >= t.deadline.Load()
}

// Reset restarts the countdown so the timer expires d from now.
// A non-positive d makes the timer expire immediately.
func (t *Timer) Reset(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.deadline.Store(t.src.NowNs() + uint64(d))
}

// Remaining returns the time left before expiry, or 0 once expired.
func (t *Timer) Remaining() time.Duration {
	now := t.src.NowNs()
	deadline := t.deadline.Load()
	if now >= deadline {
		return 0
	}
	return time.Duration(deadline - now)
}
