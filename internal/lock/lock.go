// Package lock provides the mutual-exclusion primitive guarding the queue.
//
// This package offers two implementations of the Locker interface:
//   - MutexLock: a one-slot semaphore parked in the Go scheduler, with a
//     bounded acquire timeout
//   - SpinLock: a single atomic word taken with a bounded number of
//     compare-and-swap attempts, never parking the goroutine
//
// Both report failure instead of waiting forever. A false return is an
// expected outcome, and the caller decides whether to retry, back off or
// give up. Release failures are retried with a Retry policy.
package lock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownStrategy is returned when a strategy name cannot be parsed.
	ErrUnknownStrategy = errors.New("lock: unknown strategy")

	// ErrInvalidConfig is returned by New for negative counts or timeouts.
	ErrInvalidConfig = errors.New("lock: invalid config")
)

// Locker is a mutual-exclusion primitive whose operations may fail.
//
// Implementations must be safe for concurrent use. At most one caller
// holds the lock at a time.
type Locker interface {
	// Acquire takes the lock. Returns false if it could not be taken
	// within the implementation's bound.
	Acquire() bool

	// Release gives the lock back. Returns false if the release could
	// not be performed; the caller should retry.
	Release() bool
}

// Strategy selects a Locker implementation.
type Strategy int

const (
	// StrategyMutex blocks in the scheduler for at most AcquireTimeout.
	StrategyMutex Strategy = iota

	// StrategySpin spins on an atomic word for at most AcquireAttempts.
	StrategySpin
)

func (s Strategy) String() string {
	switch s {
	case StrategyMutex:
		return "mutex"
	case StrategySpin:
		return "spin"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "mutex", "spin" or its alias "fast".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mutex":
		return StrategyMutex, nil
	case "spin", "fast":
		return StrategySpin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Config holds the knobs of both strategies. Fields that do not apply to
// the selected strategy are ignored.
type Config struct {
	Strategy Strategy

	// AcquireTimeout bounds how long MutexLock.Acquire waits.
	// Zero means a single non-blocking attempt.
	AcquireTimeout time.Duration

	// AcquireAttempts bounds SpinLock.Acquire compare-and-swaps.
	AcquireAttempts int

	// ReleaseAttempts bounds SpinLock.Release compare-and-swaps.
	ReleaseAttempts int

	// YieldEvery makes SpinLock call runtime.Gosched after every N failed
	// acquire attempts. Zero never yields.
	YieldEvery int
}

// Default values for Config.
const (
	DefaultAcquireTimeout  = time.Millisecond
	DefaultAcquireAttempts = 1024
	DefaultReleaseAttempts = 16
	DefaultYieldEvery      = 64
)

// DefaultConfig returns a Config for the given strategy with default bounds.
func DefaultConfig(s Strategy) Config {
	return Config{
		Strategy:        s,
		AcquireTimeout:  DefaultAcquireTimeout,
		AcquireAttempts: DefaultAcquireAttempts,
		ReleaseAttempts: DefaultReleaseAttempts,
		YieldEvery:      DefaultYieldEvery,
	}
}

// Validate reports whether c can build a Locker.
func (c Config) Validate() error {
	switch {
	case c.AcquireTimeout < 0:
		return fmt.Errorf("%w: negative acquire timeout %v", ErrInvalidConfig, c.AcquireTimeout)
	case c.AcquireAttempts < 0:
		return fmt.Errorf("%w: negative acquire attempts %d", ErrInvalidConfig, c.AcquireAttempts)
	case c.ReleaseAttempts < 0:
		return fmt.Errorf("%w: negative release attempts %d", ErrInvalidConfig, c.ReleaseAttempts)
	case c.YieldEvery < 0:
		return fmt.Errorf("%w: negative yield period %d", ErrInvalidConfig, c.YieldEvery)
	}
	return nil
}

// New builds the Locker selected by cfg.Strategy.
func New(cfg Config) (Locker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Strategy {
	case StrategyMutex:
		return NewMutex(cfg.AcquireTimeout), nil
	case StrategySpin:
		return NewSpin(cfg.AcquireAttempts, cfg.ReleaseAttempts, cfg.YieldEvery), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, cfg.Strategy)
	}
}
