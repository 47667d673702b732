package clock

import "sync/atomic"

// Coarse reads the underlying Source only every N calls to NowNs.
//
// This trades resolution for cost: between refreshes every caller gets the
// cached reading. Useful when stamping items at a very high rate where
// sub-microsecond precision does not matter.
//
// Example: With every=1000, the underlying clock is read once per 1000
// calls; the other 999 return the last reading.
type Coarse struct {
	src   Source
	every uint64
	calls atomic.Uint64
	last  atomic.Uint64
}

// NewCoarse creates a Coarse that refreshes from src every N calls.
//
// Parameters:
//   - src: The clock to read on refresh
//   - every: Read src only every N calls to NowNs()
func NewCoarse(src Source, every int) *Coarse {
	if every < 1 {
		every = 1
	}
	return &Coarse{
		src:   src,
		every: uint64(every),
	}
}

// NowNs returns the cached reading, refreshing it every N calls.
//
// Readings never go backwards, even when refreshes from several goroutines
// race: the cache only ever moves to a larger value.
func (c *Coarse) NowNs() uint64 {
	n := c.calls.Add(1)
	if n%c.every != 0 {
		if v := c.last.Load(); v != 0 {
			return v
		}
	}

	now := c.src.NowNs()
	for {
		prev := c.last.Load()
		if now <= prev {
			return prev
		}
		if c.last.CompareAndSwap(prev, now) {
			return now
		}
	}
}

// Every returns the refresh period in calls.
func (c *Coarse) Every() int {
	return int(c.every)
}
