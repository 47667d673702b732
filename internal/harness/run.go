package harness

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/randomizedcoder/ccq/internal/clock"
	"github.com/randomizedcoder/ccq/internal/lock"
	"github.com/randomizedcoder/ccq/internal/queue"
)

var (
	// ErrInvalidConfig is returned by Run for unusable worker counts.
	ErrInvalidConfig = errors.New("harness: invalid config")

	// ErrTimeout is returned by Run when Config.Timeout passed first.
	ErrTimeout = errors.New("harness: timed out")

	// ErrDelivery is returned by Run when items were lost, duplicated,
	// reordered or corrupted.
	ErrDelivery = errors.New("harness: delivery check failed")

	// ErrIndeterminate is returned by Run when a lock release failed for
	// good, leaving the transfer of an item unknown.
	ErrIndeterminate = errors.New("harness: queue state indeterminate")
)

// Message is the payload producers allocate and consumers take over.
// A nil *Message is the shutdown sentinel.
type Message struct {
	Producer int
	Seq      int
	Body     string
}

// Body renders the text a producer puts in message seq.
func Body(producer, seq int) string {
	return fmt.Sprintf("%d message from producer %d", seq, producer)
}

// Delivery describes one message as a consumer received it.
type Delivery struct {
	Consumer int
	Message  *Message
	InQueue  time.Duration
}

// Config describes a run.
type Config struct {
	Capacity  int
	Producers int
	Consumers int

	// Messages is the number each producer sends.
	Messages int

	Queue   queue.Config
	Backoff Backoff

	// Timeout bounds the whole run. Zero means no bound.
	Timeout time.Duration

	// LockThreads pins every worker to its own OS thread.
	LockThreads bool

	// OnDeliver, if set, is called by consumers for every message. It
	// runs on the consumer goroutine and slows it down.
	OnDeliver func(Delivery)
}

// DefaultConfig returns one producer sending 999 messages through a
// ten-slot spin-locked queue to one consumer.
func DefaultConfig() Config {
	return Config{
		Capacity:  10,
		Producers: 1,
		Consumers: 1,
		Messages:  999,
		Queue:     queue.DefaultConfig(lock.StrategySpin),
		Backoff:   DefaultBackoff(),
		Timeout:   30 * time.Second,
	}
}

func (c Config) validate() error {
	switch {
	case c.Producers < 1:
		return fmt.Errorf("%w: need at least one producer, got %d", ErrInvalidConfig, c.Producers)
	case c.Consumers < 1:
		return fmt.Errorf("%w: need at least one consumer, got %d", ErrInvalidConfig, c.Consumers)
	case c.Messages < 0:
		return fmt.Errorf("%w: negative message count %d", ErrInvalidConfig, c.Messages)
	case c.Timeout < 0:
		return fmt.Errorf("%w: negative timeout %v", ErrInvalidConfig, c.Timeout)
	}
	return nil
}

// workerStats is owned by one worker until it is joined.
type workerStats struct {
	sent            uint64
	lockRetries     uint64
	fullRetries     uint64
	emptyPolls      uint64
	releaseFailures uint64
	delivered       uint64
	outOfOrder      uint64
	corrupt         uint64
	minInQueue      uint64
	maxInQueue      uint64
	sumInQueue      uint64
}

type run struct {
	cfg      Config
	q        *queue.CCQ[*Message]
	src      clock.Source
	stop     Stop
	timer    *clock.Timer
	timedOut atomic.Bool
	failed   atomic.Bool

	// counts[p*Messages+seq] is how many times that message arrived.
	counts []atomic.Uint32

	producerStats []workerStats
	consumerStats []workerStats
	sentinelStats workerStats
}

// halted reports whether workers should give up, raising the stop signal
// when the timeout is what ended the run.
func (r *run) halted() bool {
	if r.stop.Stopped() {
		return true
	}
	if r.timer != nil && r.timer.Expired() {
		r.timedOut.Store(true)
		r.stop.Stop()
		return true
	}
	return false
}

// indeterminate records a lost lock release and stops the run.
func (r *run) indeterminate(st *workerStats) {
	st.releaseFailures++
	r.failed.Store(true)
	r.stop.Stop()
}

// Run moves cfg.Producers*cfg.Messages messages from producers to
// consumers through a new CCQ and reports what happened.
//
// Producers retry each message with cfg.Backoff until the queue takes it.
// Once all producers are done, one nil sentinel per consumer is queued and
// each consumer stops when it dequeues one. The returned Report is non-nil
// whenever the run started, including when an error is returned.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	q, err := queue.New[*Message](cfg.Capacity, cfg.Queue)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	r := &run{
		cfg:           cfg,
		q:             q,
		src:           cfg.Queue.Clock,
		counts:        make([]atomic.Uint32, cfg.Producers*cfg.Messages),
		producerStats: make([]workerStats, cfg.Producers),
		consumerStats: make([]workerStats, cfg.Consumers),
	}
	if r.src == nil {
		r.src = clock.Default()
	}
	if ctx.Done() == nil {
		r.stop = NewStop()
	} else {
		r.stop = WithContext(ctx)
	}
	defer r.stop.Stop()
	if cfg.Timeout > 0 {
		r.timer = clock.NewTimer(r.src, cfg.Timeout)
	}

	spawnFn := Spawn
	if cfg.LockThreads {
		spawnFn = SpawnLocked
	}

	start := r.src.NowNs()

	consumers := make([]*Thread, cfg.Consumers)
	for c := range consumers {
		consumers[c] = spawnFn(r.consume, c)
	}
	producers := make([]*Thread, cfg.Producers)
	for p := range producers {
		producers[p] = spawnFn(r.produce, p)
	}
	JoinAll(producers...)

	// Sentinels go in only after every real message.
	for c := 0; c < cfg.Consumers; c++ {
		if !r.send(nil, &r.sentinelStats) {
			break
		}
	}
	JoinAll(consumers...)

	rep := r.report(time.Duration(r.src.NowNs() - start))

	switch {
	case r.failed.Load():
		return rep, fmt.Errorf("%w: %d lock releases failed", ErrIndeterminate, rep.ReleaseFailures)
	case r.timedOut.Load():
		return rep, fmt.Errorf("%w after %v: delivered %d of %d", ErrTimeout, cfg.Timeout, rep.Delivered, rep.Sent)
	case ctx.Err() != nil:
		return rep, ctx.Err()
	case !rep.OK():
		return rep, fmt.Errorf("%w: missing=%d duplicates=%d out_of_order=%d corrupt=%d",
			ErrDelivery, rep.Missing, rep.Duplicates, rep.OutOfOrder, rep.Corrupt)
	}
	return rep, nil
}

// send retries Put until v is queued. It returns false if the run halted
// first.
func (r *run) send(v *Message, st *workerStats) bool {
	for attempt := 0; ; attempt++ {
		err := r.q.Put(v)
		switch {
		case err == nil:
			return true
		case errors.Is(err, queue.ErrFull):
			st.fullRetries++
		case errors.Is(err, queue.ErrLockAcquire):
			st.lockRetries++
		case errors.Is(err, queue.ErrLockRelease):
			r.indeterminate(st)
			return false
		default:
			r.stop.Stop()
			return false
		}
		if r.halted() {
			return false
		}
		r.cfg.Backoff.Wait(attempt)
	}
}

func (r *run) produce(arg any) {
	p := arg.(int)
	st := &r.producerStats[p]
	for seq := 0; seq < r.cfg.Messages; seq++ {
		m := &Message{Producer: p, Seq: seq, Body: Body(p, seq)}
		if !r.send(m, st) {
			return
		}
		st.sent++
	}
}

func (r *run) consume(arg any) {
	c := arg.(int)
	st := &r.consumerStats[c]
	st.minInQueue = ^uint64(0)

	// last[p] is the highest sequence seen from producer p, -1 for none.
	last := make([]int, r.cfg.Producers)
	for i := range last {
		last[i] = -1
	}

	for attempt := 0; ; {
		it, err := r.q.Take()
		switch {
		case err == nil:
			if it.Value == nil {
				return
			}
			r.record(c, st, last, it)
			attempt = 0
			continue
		case errors.Is(err, queue.ErrEmpty):
			st.emptyPolls++
		case errors.Is(err, queue.ErrLockAcquire):
			st.lockRetries++
		case errors.Is(err, queue.ErrLockRelease):
			if it.Value != nil {
				r.record(c, st, last, it)
			}
			r.indeterminate(st)
			return
		default:
			r.stop.Stop()
			return
		}
		if r.halted() {
			return
		}
		r.cfg.Backoff.Wait(attempt)
		attempt++
	}
}

func (r *run) record(c int, st *workerStats, last []int, it queue.Item[*Message]) {
	m := it.Value
	st.delivered++

	var inQueue uint64
	if now := r.src.NowNs(); now > it.EnqueuedAt {
		inQueue = now - it.EnqueuedAt
	}
	st.sumInQueue += inQueue
	st.minInQueue = min(st.minInQueue, inQueue)
	st.maxInQueue = max(st.maxInQueue, inQueue)

	if m.Producer < 0 || m.Producer >= r.cfg.Producers || m.Seq < 0 || m.Seq >= r.cfg.Messages {
		st.corrupt++
		return
	}
	if m.Body != Body(m.Producer, m.Seq) {
		st.corrupt++
	}
	if m.Seq <= last[m.Producer] {
		st.outOfOrder++
	} else {
		last[m.Producer] = m.Seq
	}
	r.counts[m.Producer*r.cfg.Messages+m.Seq].Add(1)

	if r.cfg.OnDeliver != nil {
		r.cfg.OnDeliver(Delivery{Consumer: c, Message: m, InQueue: time.Duration(inQueue)})
	}
}
