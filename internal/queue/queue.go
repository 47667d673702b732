// Package queue provides bounded MPMC queue implementations used as the
// hand-off point between producer and consumer goroutines.
//
// This package offers two implementations of the Queue interface:
//   - CCQ: fixed ring buffer guarded by a pluggable lock.Locker
//   - ChannelQueue: Standard library approach using buffered channels
//
// # Ownership
//
// A successful Enqueue hands the value to the queue; a successful Dequeue
// hands it to the caller. The queue never inspects, copies deeply or frees
// values, and it clears a slot as soon as its value is taken.
//
// # Non-blocking contract
//
// Neither operation waits for space or data. Enqueue returns false when
// the queue is full or its lock could not be taken; Dequeue reports empty
// and lock failure separately. Callers own the retry and backoff policy.
package queue

import "errors"

var (
	// ErrFull is returned when every slot holds a value.
	ErrFull = errors.New("queue: full")

	// ErrEmpty is returned when there is nothing to dequeue. It is a
	// normal state, not a failure.
	ErrEmpty = errors.New("queue: empty")

	// ErrLockAcquire is returned when the lock could not be taken. No
	// state was changed and the caller keeps ownership of its value.
	ErrLockAcquire = errors.New("queue: lock acquire failed")

	// ErrLockRelease is returned when the lock could not be released
	// after every retry. The operation may or may not have taken effect.
	ErrLockRelease = errors.New("queue: lock release failed")

	// ErrInvalidCapacity is returned by New for capacity < 1.
	ErrInvalidCapacity = errors.New("queue: capacity must be at least 1")

	// ErrAllocation is returned by New when the slot array is refused.
	ErrAllocation = errors.New("queue: allocation refused")

	// ErrClosed is returned by operations on a closed queue.
	ErrClosed = errors.New("queue: closed")
)

// Item is a dequeued value with the time it was enqueued.
type Item[T any] struct {
	Value T

	// EnqueuedAt is the clock reading, in nanoseconds, taken when the
	// value was written into its slot.
	EnqueuedAt uint64
}

// Queue is a bounded multi-producer multi-consumer queue.
//
// Implementations are non-blocking and safe for concurrent use.
type Queue[T any] interface {
	// Enqueue adds an item to the queue.
	// Returns false if the queue is full or the lock was not obtained;
	// the caller then still owns v.
	Enqueue(v T) bool

	// Dequeue removes the oldest item.
	// ok is false if the lock was not obtained (item is undefined).
	// found is false if the queue was empty.
	Dequeue() (item Item[T], found, ok bool)
}
