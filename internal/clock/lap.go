package clock

import "sync/atomic"

// Lap reports the time elapsed between successive marks.
type Lap struct {
	src  Source
	prev atomic.Uint64
	set  atomic.Bool
}

// NewLap creates a Lap reading from src.
func NewLap(src Source) *Lap {
	return &Lap{src: src}
}

// Mark returns nanoseconds since the previous Mark and starts a new lap.
// The first call returns 0.
func (l *Lap) Mark() uint64 {
	now := l.src.NowNs()
	prev := l.prev.Swap(now)
	if !l.set.Swap(true) || now < prev {
		return 0
	}
	return now - prev
}
