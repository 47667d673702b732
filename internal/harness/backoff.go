package harness

import (
	"runtime"
	"time"

	"github.com/valyala/fastrand"
)

// Backoff is the caller-side wait between failed queue operations.
//
// Attempts escalate through three phases: return immediately (spin), yield
// the processor, then sleep with exponential growth up to MaxSleep.
type Backoff struct {
	// Spins is the number of attempts that return without waiting.
	Spins int

	// Yields is the number of attempts after Spins that call runtime.Gosched.
	Yields int

	// Sleep is the first sleep; each later attempt doubles it.
	Sleep time.Duration

	// MaxSleep caps the sleep. Zero means Sleep is never doubled.
	MaxSleep time.Duration

	// Jitter sleeps a random duration in [d/2, d) instead of d.
	Jitter bool
}

// DefaultBackoff spins briefly, yields, then sleeps from 1µs up to 1ms.
func DefaultBackoff() Backoff {
	return Backoff{
		Spins:    16,
		Yields:   64,
		Sleep:    time.Microsecond,
		MaxSleep: time.Millisecond,
		Jitter:   true,
	}
}

// Delay returns how long attempt should sleep; zero for spin and yield
// attempts. attempt counts from 0.
func (b Backoff) Delay(attempt int) time.Duration {
	n := attempt - b.Spins - b.Yields
	if n < 0 || b.Sleep <= 0 {
		return 0
	}
	d := b.Sleep
	for ; n > 0 && d < b.MaxSleep; n-- {
		d *= 2
	}
	if b.MaxSleep > 0 && d > b.MaxSleep {
		d = b.MaxSleep
	}
	if b.Jitter && d > 1 {
		half := d / 2
		d = half + time.Duration(fastrand.Uint32n(uint32(min(half, time.Duration(^uint32(0))))))
	}
	return d
}

// Wait blocks for the given attempt number according to the policy.
func (b Backoff) Wait(attempt int) {
	switch {
	case attempt < b.Spins:
	case attempt < b.Spins+b.Yields:
		runtime.Gosched()
	default:
		if d := b.Delay(attempt); d > 0 {
			time.Sleep(d)
		} else {
			runtime.Gosched()
		}
	}
}
