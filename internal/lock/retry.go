package lock

import "time"

// Retry bounds how hard a caller tries to release a lock.
type Retry struct {
	// Attempts is the total number of Release calls. Zero never calls
	// Release and always reports failure.
	Attempts int

	// Interval is slept between failed attempts.
	Interval time.Duration

	// Sleep is called with Interval. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// Default release retry bounds.
const (
	DefaultReleaseRetries  = 1000
	DefaultReleaseInterval = time.Microsecond
)

// DefaultRetry returns 1000 attempts spaced 1µs apart.
func DefaultRetry() Retry {
	return Retry{
		Attempts: DefaultReleaseRetries,
		Interval: DefaultReleaseInterval,
		Sleep:    time.Sleep,
	}
}

// Release calls l.Release until it succeeds or the attempts run out.
// Returns false when every attempt failed.
func (r Retry) Release(l Locker) bool {
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for i := 0; i < r.Attempts; i++ {
		if l.Release() {
			return true
		}
		if i+1 < r.Attempts {
			sleep(r.Interval)
		}
	}
	return false
}
