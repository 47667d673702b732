package queue

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/cpu"

	"github.com/randomizedcoder/ccq/internal/clock"
	"github.com/randomizedcoder/ccq/internal/lock"
)

type slot[T any] struct {
	value      T
	enqueuedAt uint64
}

// CCQ is a bounded MPMC queue over a fixed ring of slots.
//
// Every read or write of the slots and of both indices happens with the
// lock held; there is no lock-free fast path, because telling empty from
// full needs a consistent view of insert and retrieve together.
//
// Live slots run from retrieve up to, but excluding, insert, wrapping at
// the end of the array. retrieve is unset when the queue is empty, so
// retrieve == insert means full and all capacity slots are usable.
type CCQ[T any] struct {
	mu      lock.Locker
	release lock.Retry
	clock   clock.Source
	name    string

	_ cpu.CacheLinePad

	slots    []slot[T]
	insert   int
	retrieve optIndex
	closed   bool

	_ cpu.CacheLinePad

	stats counters
}

// New creates a CCQ holding up to capacity items.
func New[T any](capacity int, cfg Config) (*CCQ[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	limit := cfg.MaxCapacity
	if limit <= 0 {
		limit = DefaultMaxCapacity
	}
	if capacity > limit {
		return nil, fmt.Errorf("%w: capacity %d exceeds limit %d", ErrAllocation, capacity, limit)
	}

	mu := cfg.Locker
	if mu == nil {
		var err error
		if mu, err = lock.New(cfg.Lock); err != nil {
			return nil, err
		}
	}
	src := cfg.Clock
	if src == nil {
		src = clock.Default()
	}
	release := cfg.Release
	if release.Attempts == 0 && release.Interval == 0 && release.Sleep == nil {
		release = lock.DefaultRetry()
	}

	return &CCQ[T]{
		mu:      mu,
		release: release,
		clock:   src,
		name:    lockerName(mu),
		slots:   make([]slot[T], capacity),
	}, nil
}

func lockerName(l lock.Locker) string {
	switch l.(type) {
	case *lock.MutexLock:
		return lock.StrategyMutex.String()
	case *lock.SpinLock:
		return lock.StrategySpin.String()
	default:
		return fmt.Sprintf("%T", l)
	}
}

// Put adds v to the queue.
//
// It returns ErrLockAcquire or ErrFull with the queue unchanged, in which
// case the caller keeps v. ErrLockRelease means v was stored but the
// release of the lock failed; treat the transfer as indeterminate.
func (q *CCQ[T]) Put(v T) error {
	q.stats.enqueueAttempts.Add(1)
	if !q.mu.Acquire() {
		q.stats.acquireFailures.Add(1)
		return ErrLockAcquire
	}

	err := q.put(v)

	if !q.release.Release(q.mu) {
		q.stats.releaseFailures.Add(1)
		return ErrLockRelease
	}
	return err
}

// put runs with the lock held.
func (q *CCQ[T]) put(v T) error {
	if q.closed {
		return ErrClosed
	}
	// retrieve must be read before anything is written.
	if q.retrieve.is(q.insert) {
		q.stats.enqueueFull.Add(1)
		return ErrFull
	}

	q.slots[q.insert] = slot[T]{value: v, enqueuedAt: q.clock.NowNs()}

	// Was empty: the slot just written is the only readable one.
	if _, ok := q.retrieve.get(); !ok {
		q.retrieve.set(q.insert)
	}

	q.insert++
	if q.insert == len(q.slots) {
		q.insert = 0
	}
	q.stats.enqueued.Add(1)
	return nil
}

// Take removes the oldest item.
//
// ErrEmpty is a normal outcome. ErrLockAcquire leaves the queue unchanged.
// ErrLockRelease is returned together with the removed item: the item was
// taken, but its removal may not be visible to other goroutines.
func (q *CCQ[T]) Take() (Item[T], error) {
	q.stats.dequeueAttempts.Add(1)
	if !q.mu.Acquire() {
		q.stats.acquireFailures.Add(1)
		return Item[T]{}, ErrLockAcquire
	}

	it, err := q.take()

	if !q.release.Release(q.mu) {
		q.stats.releaseFailures.Add(1)
		return it, ErrLockRelease
	}
	return it, err
}

// take runs with the lock held.
func (q *CCQ[T]) take() (Item[T], error) {
	if q.closed {
		return Item[T]{}, ErrClosed
	}
	pos, ok := q.retrieve.get()
	if !ok {
		q.stats.dequeueEmpty.Add(1)
		return Item[T]{}, ErrEmpty
	}

	s := &q.slots[pos]
	it := Item[T]{Value: s.value, EnqueuedAt: s.enqueuedAt}
	// Taken: drop the queue's reference so the value has a single owner.
	*s = slot[T]{}

	pos++
	if pos == len(q.slots) {
		pos = 0
	}
	if pos == q.insert {
		q.retrieve.clear()
	} else {
		q.retrieve.set(pos)
	}
	q.stats.dequeued.Add(1)
	return it, nil
}

// Enqueue adds v to the queue.
// Returns false if the queue is full, closed, or the lock failed.
func (q *CCQ[T]) Enqueue(v T) bool {
	return q.Put(v) == nil
}

// Dequeue removes the oldest item.
// ok is false on lock failure or a closed queue; found is false when the
// queue is empty.
func (q *CCQ[T]) Dequeue() (Item[T], bool, bool) {
	it, err := q.Take()
	switch {
	case err == nil:
		return it, true, true
	case errors.Is(err, ErrEmpty):
		return Item[T]{}, false, true
	default:
		return Item[T]{}, false, false
	}
}

// Len returns the number of items in the queue.
// ok is false if the lock could not be taken or released.
func (q *CCQ[T]) Len() (n int, ok bool) {
	if !q.mu.Acquire() {
		q.stats.acquireFailures.Add(1)
		return 0, false
	}
	n = q.length()
	if !q.release.Release(q.mu) {
		q.stats.releaseFailures.Add(1)
		return n, false
	}
	return n, true
}

// length runs with the lock held.
func (q *CCQ[T]) length() int {
	pos, ok := q.retrieve.get()
	if !ok {
		return 0
	}
	n := q.insert - pos
	if n <= 0 {
		n += len(q.slots)
	}
	return n
}

// Cap returns the fixed capacity. It is zero after Close.
func (q *CCQ[T]) Cap() int {
	return len(q.slots)
}

// Strategy returns the name of the lock guarding the queue.
func (q *CCQ[T]) Strategy() string {
	return q.name
}

// Stats retrieves the current operation counters.
func (q *CCQ[T]) Stats() Stats {
	return q.stats.snapshot()
}

// Dump writes a one-line summary of the queue state to w.
// The indices are read under the lock; if it cannot be taken the line
// says so instead.
func (q *CCQ[T]) Dump(w io.Writer) {
	st := q.stats.snapshot()
	if !q.mu.Acquire() {
		fmt.Fprintf(w, "ccq{lock=%s, busy, enqueued=%d, dequeued=%d}\n", q.name, st.Enqueued, st.Dequeued)
		return
	}
	retrieve := "unset"
	if pos, ok := q.retrieve.get(); ok {
		retrieve = fmt.Sprint(pos)
	}
	fmt.Fprintf(w, "ccq{lock=%s, len=%d, cap=%d, insert=%d, retrieve=%s, closed=%t, enqueued=%d, dequeued=%d, acquire_failures=%d, release_failures=%d}\n",
		q.name, q.length(), len(q.slots), q.insert, retrieve, q.closed,
		st.Enqueued, st.Dequeued, st.AcquireFailures, st.ReleaseFailures)
	if !q.release.Release(q.mu) {
		q.stats.releaseFailures.Add(1)
	}
}

// Close releases the slot array. Items still queued are dropped.
//
// The caller must guarantee no other goroutine is using the queue; after
// Close every operation reports ErrClosed (or false).
func (q *CCQ[T]) Close() {
	q.slots = nil
	q.insert = 0
	q.retrieve.clear()
	q.closed = true
}
