package queue

import "github.com/randomizedcoder/ccq/internal/clock"

// ChannelQueue wraps a buffered channel as a Queue.
//
// This is the standard library approach. Each Enqueue/Dequeue performs
// a non-blocking channel operation via select with default. The channel's
// internal lock cannot fail, so ok is always true.
type ChannelQueue[T any] struct {
	ch    chan Item[T]
	clock clock.Source
}

// NewChannel creates a ChannelQueue with the specified buffer size,
// stamping items with src (clock.Default() if nil).
func NewChannel[T any](size int, src clock.Source) *ChannelQueue[T] {
	if src == nil {
		src = clock.Default()
	}
	return &ChannelQueue[T]{
		ch:    make(chan Item[T], size),
		clock: src,
	}
}

// Enqueue adds an item to the queue.
// Returns false if the queue is full (non-blocking).
func (q *ChannelQueue[T]) Enqueue(v T) bool {
	select {
	case q.ch <- Item[T]{Value: v, EnqueuedAt: q.clock.NowNs()}:
		return true
	default:
		return false
	}
}

// Dequeue removes and returns the oldest item.
// found is false if the queue is empty (non-blocking).
func (q *ChannelQueue[T]) Dequeue() (Item[T], bool, bool) {
	select {
	case it := <-q.ch:
		return it, true, true
	default:
		return Item[T]{}, false, true
	}
}

// Len returns the current number of items in the queue.
func (q *ChannelQueue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the capacity of the queue.
func (q *ChannelQueue[T]) Cap() int {
	return cap(q.ch)
}
