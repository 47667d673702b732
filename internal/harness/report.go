package harness

import (
	"fmt"
	"io"
	"time"

	"github.com/randomizedcoder/ccq/internal/queue"
	"github.com/sugawarayuuta/sonnet"
)

// Report summarizes a Run.
type Report struct {
	Strategy  string `json:"strategy"`
	Capacity  int    `json:"capacity"`
	Producers int    `json:"producers"`
	Consumers int    `json:"consumers"`
	Messages  int    `json:"messages_per_producer"`

	Sent        uint64   `json:"sent"`
	Delivered   uint64   `json:"delivered"`
	PerConsumer []uint64 `json:"per_consumer"`

	Missing    uint64 `json:"missing"`
	Duplicates uint64 `json:"duplicates"`
	OutOfOrder uint64 `json:"out_of_order"`
	Corrupt    uint64 `json:"corrupt"`

	FullRetries     uint64 `json:"full_retries"`
	LockRetries     uint64 `json:"lock_retries"`
	EmptyPolls      uint64 `json:"empty_polls"`
	ReleaseFailures uint64 `json:"release_failures"`

	MinInQueueNs  uint64 `json:"min_in_queue_ns"`
	MeanInQueueNs uint64 `json:"mean_in_queue_ns"`
	MaxInQueueNs  uint64 `json:"max_in_queue_ns"`

	ElapsedNs int64   `json:"elapsed_ns"`
	PerSecond float64 `json:"messages_per_second"`
	TimedOut  bool    `json:"timed_out"`

	QueueStats queue.Stats `json:"queue"`
}

// OK reports whether every sent message arrived exactly once, intact and
// in per-producer order.
func (r *Report) OK() bool {
	return r.Missing == 0 && r.Duplicates == 0 && r.OutOfOrder == 0 &&
		r.Corrupt == 0 && r.ReleaseFailures == 0
}

// Elapsed is the wall time of the run.
func (r *Report) Elapsed() time.Duration {
	return time.Duration(r.ElapsedNs)
}

// JSON encodes the report.
func (r *Report) JSON() ([]byte, error) {
	return sonnet.Marshal(r)
}

// ParseReport decodes a report written by JSON.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := sonnet.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("harness: decode report: %w", err)
	}
	return &r, nil
}

// WriteText prints the report in the same layout as the cmd tools.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Queue: %s, capacity %d\n", r.Strategy, r.Capacity)
	fmt.Fprintf(w, "Workers: %d producers x %d messages, %d consumers\n", r.Producers, r.Messages, r.Consumers)
	fmt.Fprintln(w, "─────────────────────────────────────────────────")
	fmt.Fprintf(w, "  Sent:        %d\n", r.Sent)
	fmt.Fprintf(w, "  Delivered:   %d %v\n", r.Delivered, r.PerConsumer)
	fmt.Fprintf(w, "  Elapsed:     %v (%.2f M msgs/sec)\n", r.Elapsed(), r.PerSecond/1e6)
	fmt.Fprintf(w, "  In queue:    min %v, mean %v, max %v\n",
		time.Duration(r.MinInQueueNs), time.Duration(r.MeanInQueueNs), time.Duration(r.MaxInQueueNs))
	fmt.Fprintf(w, "  Retries:     full %d, lock %d, empty polls %d\n", r.FullRetries, r.LockRetries, r.EmptyPolls)
	fmt.Fprintf(w, "  Lock:        %d acquire failures, %d release failures\n",
		r.QueueStats.AcquireFailures, r.QueueStats.ReleaseFailures)

	if r.TimedOut {
		fmt.Fprintln(w, "\n  TIMED OUT")
	}
	if r.OK() {
		fmt.Fprintln(w, "\n  Delivery:    OK")
		return
	}
	fmt.Fprintf(w, "\n  Delivery:    FAILED (missing %d, duplicates %d, out of order %d, corrupt %d)\n",
		r.Missing, r.Duplicates, r.OutOfOrder, r.Corrupt)
}

// report merges the per-worker counters. Workers must be joined.
func (r *run) report(elapsed time.Duration) *Report {
	rep := &Report{
		Strategy:    r.q.Strategy(),
		Capacity:    r.q.Cap(),
		Producers:   r.cfg.Producers,
		Consumers:   r.cfg.Consumers,
		Messages:    r.cfg.Messages,
		PerConsumer: make([]uint64, len(r.consumerStats)),
		ElapsedNs:   int64(elapsed),
		TimedOut:    r.timedOut.Load(),
		QueueStats:  r.q.Stats(),
	}

	minInQueue := ^uint64(0)
	var sumInQueue uint64
	add := func(st *workerStats) {
		rep.Sent += st.sent
		rep.OutOfOrder += st.outOfOrder
		rep.Corrupt += st.corrupt
		rep.FullRetries += st.fullRetries
		rep.LockRetries += st.lockRetries
		rep.EmptyPolls += st.emptyPolls
		rep.ReleaseFailures += st.releaseFailures
	}
	for i := range r.producerStats {
		add(&r.producerStats[i])
	}
	add(&r.sentinelStats)
	for i := range r.consumerStats {
		st := &r.consumerStats[i]
		add(st)
		rep.PerConsumer[i] = st.delivered
		rep.Delivered += st.delivered
		sumInQueue += st.sumInQueue
		if st.delivered > 0 {
			minInQueue = min(minInQueue, st.minInQueue)
			rep.MaxInQueueNs = max(rep.MaxInQueueNs, st.maxInQueue)
		}
	}
	if rep.Delivered > 0 {
		rep.MinInQueueNs = minInQueue
		rep.MeanInQueueNs = sumInQueue / rep.Delivered
	}
	if elapsed > 0 {
		rep.PerSecond = float64(rep.Delivered) / elapsed.Seconds()
	}

	// Producers send in order, so only the first sent messages of each
	// producer are owed to consumers.
	for p := range r.producerStats {
		sent := int(r.producerStats[p].sent)
		for seq := 0; seq < r.cfg.Messages; seq++ {
			switch n := r.counts[p*r.cfg.Messages+seq].Load(); {
			case n == 0 && seq < sent:
				rep.Missing++
			case n > 1:
				rep.Duplicates += uint64(n - 1)
			}
		}
	}
	return rep
}
