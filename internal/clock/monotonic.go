package clock

import (
	_ "unsafe" // Required for go:linkname
)

// nanotime returns the current monotonic time in nanoseconds.
// This is faster than time.Now() because it returns a single int64
// and avoids constructing a time.Time struct.
//
// Note: This uses go:linkname to access an internal runtime function.
// It may break in future Go versions, though it has been stable.
//
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// Monotonic reads the runtime's monotonic clock and reports nanoseconds
// elapsed since the source was created.
//
// Typical performance:
//   - Std.NowNs(): ~20-40ns
//   - Monotonic.NowNs(): ~3-5ns
type Monotonic struct {
	start int64
}

// NewMonotonic creates a Monotonic whose origin is now.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: nanotime()}
}

// NowNs returns nanoseconds since the source was created.
func (m *Monotonic) NowNs() uint64 {
	return uint64(nanotime() - m.start)
}
