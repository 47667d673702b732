// Package harness drives the producer/consumer hand-off pattern around a
// queue: it spawns and joins worker goroutines, carries the stop signal,
// supplies the caller-side backoff the queue deliberately leaves out, and
// verifies delivery.
//
// The queue never waits on behalf of its callers. Everything that waits,
// retries or gives up lives here.
package harness

import "runtime"

// Thread is a handle to a spawned worker.
type Thread struct {
	done chan struct{}
}

// Spawn runs fn(arg) on a new goroutine.
func Spawn(fn func(arg any), arg any) *Thread {
	return spawn(fn, arg, false)
}

// SpawnLocked runs fn(arg) on a new goroutine wired to its own OS thread
// for its whole lifetime.
func SpawnLocked(fn func(arg any), arg any) *Thread {
	return spawn(fn, arg, true)
}

func spawn(fn func(arg any), arg any, locked bool) *Thread {
	t := &Thread{done: make(chan struct{})}
	go func() {
		if locked {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}
		defer close(t.done)
		fn(arg)
	}()
	return t
}

// Done is closed when the worker returns.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// JoinAll waits for every thread to return. Nil handles are skipped.
func JoinAll(threads ...*Thread) {
	for _, t := range threads {
		if t == nil {
			continue
		}
		<-t.done
	}
}
