package clock

import "time"

// Std measures elapsed time with time.Since.
//
// This is the standard library approach. Each reading builds a time.Time
// and subtracts its monotonic component from the start time.
type Std struct {
	start time.Time
}

// NewStd creates a Std whose origin is now.
func NewStd() *Std {
	return &Std{start: time.Now()}
}

// NowNs returns nanoseconds since the source was created.
func (s *Std) NowNs() uint64 {
	return uint64(time.Since(s.start))
}

// Start returns the wall-clock time the source was created.
func (s *Std) Start() time.Time {
	return s.start
}
