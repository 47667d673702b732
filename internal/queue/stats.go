package queue

import "sync/atomic"

type counters struct {
	enqueueAttempts atomic.Uint64
	enqueued        atomic.Uint64
	enqueueFull     atomic.Uint64

	dequeueAttempts atomic.Uint64
	dequeued        atomic.Uint64
	dequeueEmpty    atomic.Uint64

	acquireFailures atomic.Uint64
	releaseFailures atomic.Uint64
}

// Stats is a snapshot of a CCQ's operation counters.
type Stats struct {
	EnqueueAttempts uint64 `json:"enqueue_attempts"`
	Enqueued        uint64 `json:"enqueued"`
	EnqueueFull     uint64 `json:"enqueue_full"`

	DequeueAttempts uint64 `json:"dequeue_attempts"`
	Dequeued        uint64 `json:"dequeued"`
	DequeueEmpty    uint64 `json:"dequeue_empty"`

	AcquireFailures uint64 `json:"acquire_failures"`
	ReleaseFailures uint64 `json:"release_failures"`
}

func (c *counters) snapshot() Stats {
	return Stats{
		EnqueueAttempts: c.enqueueAttempts.Load(),
		Enqueued:        c.enqueued.Load(),
		EnqueueFull:     c.enqueueFull.Load(),
		DequeueAttempts: c.dequeueAttempts.Load(),
		Dequeued:        c.dequeued.Load(),
		DequeueEmpty:    c.dequeueEmpty.Load(),
		AcquireFailures: c.acquireFailures.Load(),
		ReleaseFailures: c.releaseFailures.Load(),
	}
}
