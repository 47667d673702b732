package harness

import (
	"context"
	"sync/atomic"
)

// Stop tells workers to abandon their retry loops.
//
// Implementations must be safe for concurrent use:
//   - Multiple goroutines may call Stopped() concurrently
//   - Stop() may be called concurrently with Stopped()
type Stop interface {
	// Stopped returns true once Stop has been called.
	Stopped() bool

	// Stop raises the signal. Safe to call multiple times.
	Stop()
}

// flagStop is a Stop backed by an atomic.Bool.
//
// Each Stopped() is a single atomic load, cheap enough to check on every
// iteration of a hot retry loop.
type flagStop struct {
	stopped atomic.Bool
}

// NewStop returns a Stop that is raised only by calling Stop.
func NewStop() Stop {
	return &flagStop{}
}

func (f *flagStop) Stopped() bool {
	return f.stopped.Load()
}

func (f *flagStop) Stop() {
	f.stopped.Store(true)
}

// contextStop is raised by Stop or by its parent context ending.
type contextStop struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// WithContext returns a Stop raised by Stop or when parent is done.
func WithContext(parent context.Context) Stop {
	ctx, cancel := context.WithCancel(parent)
	return &contextStop{ctx: ctx, cancel: cancel}
}

func (c *contextStop) Stopped() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

func (c *contextStop) Stop() {
	c.cancel()
}
