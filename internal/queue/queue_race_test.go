package queue_test

import (
	"runtime"
	"sync"
	"testing"

	"github.com/randomizedcoder/ccq/internal/lock"
	"github.com/randomizedcoder/ccq/internal/queue"
)

type tagged struct {
	producer int
	seq      int
}

// testNoDoubleDelivery runs producers and consumers against q until every
// consumer has seen a nil sentinel, then checks each tagged item arrived
// exactly once and that no consumer saw a producer's items out of order.
// Run with: go test -race ./internal/queue
func testNoDoubleDelivery(t *testing.T, q queue.Queue[*tagged]) {
	t.Helper()

	const (
		producers   = 4
		consumers   = 4
		perProducer = 1000
	)

	seen := make([][]int, consumers)
	var cg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cg.Add(1)
		go func(c int) {
			defer cg.Done()
			counts := make([]int, producers*perProducer)
			last := make([]int, producers)
			for i := range last {
				last[i] = -1
			}
			for {
				it, found, ok := q.Dequeue()
				if !ok || !found {
					runtime.Gosched()
					continue
				}
				m := it.Value
				if m == nil {
					break
				}
				if m.seq <= last[m.producer] {
					t.Errorf("consumer %d: producer %d item %d after %d", c, m.producer, m.seq, last[m.producer])
				}
				last[m.producer] = m.seq
				counts[m.producer*perProducer+m.seq]++
			}
			seen[c] = counts
		}(c)
	}

	var pg sync.WaitGroup
	for p := 0; p < producers; p++ {
		pg.Add(1)
		go func(p int) {
			defer pg.Done()
			for i := 0; i < perProducer; i++ {
				m := &tagged{producer: p, seq: i}
				for !q.Enqueue(m) {
					runtime.Gosched()
				}
			}
		}(p)
	}
	pg.Wait()

	// One sentinel per consumer, sent after every item.
	for c := 0; c < consumers; c++ {
		for !q.Enqueue(nil) {
			runtime.Gosched()
		}
	}
	cg.Wait()

	for tag := 0; tag < producers*perProducer; tag++ {
		total := 0
		for c := 0; c < consumers; c++ {
			total += seen[c][tag]
		}
		if total != 1 {
			t.Fatalf("item %d delivered %d times (expected 1)", tag, total)
		}
	}
}

func TestCCQ_NoDoubleDelivery(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, s lock.Strategy) {
		for _, capacity := range []int{1, 10, 256} {
			q, err := queue.New[*tagged](capacity, queue.DefaultConfig(s))
			if err != nil {
				t.Fatal(err)
			}
			testNoDoubleDelivery(t, q)

			st := q.Stats()
			if st.Enqueued != st.Dequeued {
				t.Errorf("cap %d: enqueued %d, dequeued %d", capacity, st.Enqueued, st.Dequeued)
			}
			if st.ReleaseFailures != 0 {
				t.Errorf("cap %d: unexpected release failures: %d", capacity, st.ReleaseFailures)
			}
		}
	})
}

func TestChannelQueue_NoDoubleDelivery(t *testing.T) {
	testNoDoubleDelivery(t, queue.NewChannel[*tagged](64, nil))
}
