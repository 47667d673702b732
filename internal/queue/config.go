package queue

import (
	"github.com/randomizedcoder/ccq/internal/clock"
	"github.com/randomizedcoder/ccq/internal/lock"
)

// DefaultMaxCapacity is the largest slot count New allocates by default.
const DefaultMaxCapacity = 1 << 24

// Config controls how a CCQ is built.
type Config struct {
	// Lock selects and bounds the lock strategy. The zero value is a
	// mutex that never waits.
	Lock lock.Config

	// Locker, if non-nil, is used instead of building one from Lock.
	Locker lock.Locker

	// Release bounds the retries around every lock release.
	// The zero value means lock.DefaultRetry().
	Release lock.Retry

	// Clock stamps items at enqueue. Nil means clock.Default().
	Clock clock.Source

	// MaxCapacity caps the slot count; larger requests fail with
	// ErrAllocation. Zero means DefaultMaxCapacity.
	MaxCapacity int
}

// DefaultConfig returns a Config using the given lock strategy, the
// default release retry and the process clock.
func DefaultConfig(s lock.Strategy) Config {
	return Config{
		Lock:        lock.DefaultConfig(s),
		Release:     lock.DefaultRetry(),
		Clock:       clock.Default(),
		MaxCapacity: DefaultMaxCapacity,
	}
}
