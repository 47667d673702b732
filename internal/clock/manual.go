package clock

import (
	"sync/atomic"
	"time"
)

// Manual is a Source whose time only moves when told to.
//
// It lets tests control timestamps and timer expiry without sleeping.
type Manual struct {
	now atomic.Uint64
}

// NewManual creates a Manual reading start nanoseconds.
func NewManual(start uint64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

// NowNs returns the current manual reading.
func (m *Manual) NowNs() uint64 {
	return m.now.Load()
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.now.Add(uint64(d))
}

// Set moves the clock to ns. Moving backwards is ignored.
func (m *Manual) Set(ns uint64) {
	for {
		prev := m.now.Load()
		if ns <= prev {
			return
		}
		if m.now.CompareAndSwap(prev, ns) {
			return
		}
	}
}
