// Package clock provides the monotonic nanosecond clock used to stamp
// queue items and to measure how long they waited.
//
// This package offers several implementations of the Source interface:
//   - Monotonic: runtime.nanotime relative to creation (the default)
//   - Std: time.Since of a start time.Time
//   - Coarse: re-reads another Source only every N calls
//   - Manual: moved explicitly, for tests
//
// On top of any Source it provides Lap (elapsed since the previous mark)
// and Timer (a countdown used to bound caller retry loops).
package clock

// Source returns monotonically non-decreasing nanosecond readings.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Source interface {
	// NowNs returns nanoseconds since the source's origin.
	NowNs() uint64
}

var defaultSource = NewMonotonic()

// Default returns the process-wide Monotonic source, started at package
// initialization.
func Default() *Monotonic {
	return defaultSource
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() uint64

// NowNs calls f.
func (f SourceFunc) NowNs() uint64 {
	return f()
}
