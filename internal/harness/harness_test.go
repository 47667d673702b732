package harness_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/randomizedcoder/ccq/internal/harness"
	"github.com/randomizedcoder/ccq/internal/lock"
	"github.com/randomizedcoder/ccq/internal/queue"
)

var strategies = []lock.Strategy{lock.StrategyMutex, lock.StrategySpin}

func TestRun(t *testing.T) {
	cases := []struct {
		name                          string
		capacity, producers, consumer int
		messages                      int
	}{
		{"spsc_cap1", 1, 1, 1, 500},
		{"spsc_cap10", 10, 1, 1, 999},
		{"mpsc", 10, 4, 1, 500},
		{"spmc", 10, 1, 4, 500},
		{"mpmc", 8, 4, 4, 500},
		{"no_messages", 3, 2, 2, 0},
	}

	for _, s := range strategies {
		for _, tc := range cases {
			t.Run(s.String()+"/"+tc.name, func(t *testing.T) {
				cfg := harness.DefaultConfig()
				cfg.Capacity = tc.capacity
				cfg.Producers = tc.producers
				cfg.Consumers = tc.consumer
				cfg.Messages = tc.messages
				cfg.Queue = queue.DefaultConfig(s)

				rep, err := harness.Run(context.Background(), cfg)
				if err != nil {
					t.Fatalf("Run: %v", err)
				}
				want := uint64(tc.producers * tc.messages)
				if rep.Sent != want || rep.Delivered != want {
					t.Errorf("sent=%d delivered=%d, want %d", rep.Sent, rep.Delivered, want)
				}
				if !rep.OK() {
					t.Errorf("report not OK: %+v", rep)
				}
				if rep.Strategy != s.String() {
					t.Errorf("Strategy = %q, want %q", rep.Strategy, s.String())
				}
				var sum uint64
				for _, n := range rep.PerConsumer {
					sum += n
				}
				if sum != rep.Delivered {
					t.Errorf("per-consumer sum %d != delivered %d", sum, rep.Delivered)
				}
				if rep.MinInQueueNs > rep.MeanInQueueNs || rep.MeanInQueueNs > rep.MaxInQueueNs {
					t.Errorf("in-queue min/mean/max out of order: %d/%d/%d",
						rep.MinInQueueNs, rep.MeanInQueueNs, rep.MaxInQueueNs)
				}
				// Every message plus one sentinel per consumer.
				if got, want := rep.QueueStats.Dequeued, want+uint64(tc.consumer); got != want {
					t.Errorf("queue dequeued %d, want %d", got, want)
				}
			})
		}
	}
}

func TestRun_LockThreads(t *testing.T) {
	cfg := harness.DefaultConfig()
	cfg.Producers = 2
	cfg.Consumers = 2
	cfg.Messages = 200
	cfg.LockThreads = true

	if _, err := harness.Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_OnDeliver(t *testing.T) {
	cfg := harness.DefaultConfig()
	cfg.Producers = 3
	cfg.Consumers = 2
	cfg.Messages = 100

	var mu sync.Mutex
	seen := make(map[[2]int]int)
	cfg.OnDeliver = func(d harness.Delivery) {
		if d.Message.Body != harness.Body(d.Message.Producer, d.Message.Seq) {
			t.Errorf("bad body %q", d.Message.Body)
		}
		if d.Consumer < 0 || d.Consumer >= cfg.Consumers {
			t.Errorf("bad consumer index %d", d.Consumer)
		}
		mu.Lock()
		seen[[2]int{d.Message.Producer, d.Message.Seq}]++
		mu.Unlock()
	}

	if _, err := harness.Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 300 {
		t.Fatalf("saw %d distinct messages, want 300", len(seen))
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("message %v delivered %d times", k, n)
		}
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cases := map[string]func(*harness.Config){
		"no producers":     func(c *harness.Config) { c.Producers = 0 },
		"no consumers":     func(c *harness.Config) { c.Consumers = 0 },
		"negative count":   func(c *harness.Config) { c.Messages = -1 },
		"negative timeout": func(c *harness.Config) { c.Timeout = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := harness.DefaultConfig()
			mutate(&cfg)
			rep, err := harness.Run(context.Background(), cfg)
			if !errors.Is(err, harness.ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
			if rep != nil {
				t.Error("expected nil report")
			}
		})
	}

	cfg := harness.DefaultConfig()
	cfg.Capacity = 0
	if _, err := harness.Run(context.Background(), cfg); !errors.Is(err, queue.ErrInvalidCapacity) {
		t.Errorf("capacity 0: err = %v, want ErrInvalidCapacity", err)
	}
}

// stuckLocker never grants the lock.
type stuckLocker struct{}

func (stuckLocker) Acquire() bool { return false }
func (stuckLocker) Release() bool { return false }

func TestRun_Timeout(t *testing.T) {
	cfg := harness.DefaultConfig()
	cfg.Queue.Locker = stuckLocker{}
	cfg.Timeout = 20 * time.Millisecond

	start := time.Now()
	rep, err := harness.Run(context.Background(), cfg)
	if !errors.Is(err, harness.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run took %v after a 20ms timeout", elapsed)
	}
	if rep == nil || !rep.TimedOut {
		t.Fatalf("expected a timed out report, got %+v", rep)
	}
	if rep.Sent != 0 || rep.Delivered != 0 {
		t.Errorf("sent=%d delivered=%d through a stuck lock", rep.Sent, rep.Delivered)
	}
	if rep.LockRetries == 0 {
		t.Error("expected lock retries to be counted")
	}
	if rep.Missing != 0 {
		t.Errorf("Missing = %d, unsent messages must not count", rep.Missing)
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := harness.DefaultConfig()
	cfg.Queue.Locker = stuckLocker{}
	cfg.Timeout = 0

	_, err := harness.Run(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// leakyLocker grants the lock but can never give it back.
type leakyLocker struct {
	held atomic.Bool
}

func (l *leakyLocker) Acquire() bool { return l.held.CompareAndSwap(false, true) }
func (l *leakyLocker) Release() bool { return false }

func TestRun_ReleaseFailure(t *testing.T) {
	cfg := harness.DefaultConfig()
	cfg.Queue.Locker = &leakyLocker{}
	cfg.Queue.Release = lock.Retry{Attempts: 2, Interval: time.Microsecond}
	cfg.Timeout = 5 * time.Second

	rep, err := harness.Run(context.Background(), cfg)
	if !errors.Is(err, harness.ErrIndeterminate) {
		t.Fatalf("err = %v, want ErrIndeterminate", err)
	}
	if rep.ReleaseFailures == 0 {
		t.Error("expected release failures in report")
	}
	if rep.OK() {
		t.Error("report with release failures must not be OK")
	}
}

func TestReport_JSON(t *testing.T) {
	cfg := harness.DefaultConfig()
	cfg.Messages = 50

	rep, err := harness.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := rep.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	for _, key := range []string{`"strategy":"spin"`, `"delivered":50`, `"queue":{`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("JSON missing %s: %s", key, data)
		}
	}

	back, err := harness.ParseReport(data)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if back.Delivered != rep.Delivered || back.QueueStats != rep.QueueStats || back.ElapsedNs != rep.ElapsedNs {
		t.Errorf("decoded report differs: %+v vs %+v", back, rep)
	}

	if _, err := harness.ParseReport([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestReport_WriteText(t *testing.T) {
	ok := &harness.Report{Strategy: "mutex", Capacity: 4, Sent: 3, Delivered: 3, PerConsumer: []uint64{3}}
	var buf bytes.Buffer
	ok.WriteText(&buf)
	out := buf.String()
	for _, want := range []string{"Queue: mutex, capacity 4", "Delivery:    OK"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	bad := &harness.Report{Strategy: "spin", Missing: 2, TimedOut: true}
	buf.Reset()
	bad.WriteText(&buf)
	out = buf.String()
	for _, want := range []string{"TIMED OUT", "FAILED (missing 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBackoff_Delay(t *testing.T) {
	b := harness.Backoff{Spins: 2, Yields: 3, Sleep: time.Microsecond, MaxSleep: 8 * time.Microsecond}

	want := []time.Duration{0, 0, 0, 0, 0, 1000, 2000, 4000, 8000, 8000, 8000}
	for attempt, w := range want {
		if got := b.Delay(attempt); got != w {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, w)
		}
	}

	noCap := harness.Backoff{Sleep: time.Millisecond}
	if got := noCap.Delay(10); got != time.Millisecond {
		t.Errorf("Delay without MaxSleep = %v, want %v", got, time.Millisecond)
	}

	if got := (harness.Backoff{}).Delay(100); got != 0 {
		t.Errorf("zero Backoff Delay = %v, want 0", got)
	}
}

func TestBackoff_Jitter(t *testing.T) {
	b := harness.Backoff{Sleep: 100 * time.Microsecond, MaxSleep: 100 * time.Microsecond, Jitter: true}
	for i := 0; i < 1000; i++ {
		d := b.Delay(5)
		if d < 50*time.Microsecond || d >= 100*time.Microsecond {
			t.Fatalf("jittered delay %v outside [50µs, 100µs)", d)
		}
	}
}

func TestBackoff_Wait(t *testing.T) {
	b := harness.DefaultBackoff()
	start := time.Now()
	for attempt := 0; attempt < b.Spins+b.Yields; attempt++ {
		b.Wait(attempt)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("spin and yield phases took %v", elapsed)
	}

	start = time.Now()
	b.Wait(b.Spins + b.Yields + 20)
	if elapsed := time.Since(start); elapsed < b.MaxSleep/2 {
		t.Errorf("sleep phase waited %v, want at least %v", elapsed, b.MaxSleep/2)
	}
}

func TestSpawnJoinAll(t *testing.T) {
	var n atomic.Int64
	threads := make([]*harness.Thread, 8)
	for i := range threads {
		spawn := harness.Spawn
		if i%2 == 1 {
			spawn = harness.SpawnLocked
		}
		threads[i] = spawn(func(arg any) { n.Add(int64(arg.(int))) }, i)
	}
	harness.JoinAll(append(threads, nil)...)

	if got := n.Load(); got != 28 {
		t.Errorf("sum = %d, want 28", got)
	}
	for i, th := range threads {
		select {
		case <-th.Done():
		default:
			t.Errorf("thread %d not done after JoinAll", i)
		}
	}
}

func TestStop(t *testing.T) {
	stops := map[string]harness.Stop{
		"flag":    harness.NewStop(),
		"context": harness.WithContext(context.Background()),
	}
	for name, s := range stops {
		t.Run(name, func(t *testing.T) {
			if s.Stopped() {
				t.Error("expected Stopped() = false before Stop()")
			}
			s.Stop()
			if !s.Stopped() {
				t.Error("expected Stopped() = true after Stop()")
			}
			// Verify idempotent
			s.Stop()
			if !s.Stopped() {
				t.Error("expected Stopped() = true after second Stop()")
			}
		})
	}
}

func TestStop_ParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := harness.WithContext(ctx)
	if s.Stopped() {
		t.Fatal("expected Stopped() = false before parent cancel")
	}
	cancel()
	if !s.Stopped() {
		t.Error("expected Stopped() = true after parent cancel")
	}
}

func TestStop_Race(t *testing.T) {
	s := harness.NewStop()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10000; j++ {
				_ = s.Stopped()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Stop()
	}()
	wg.Wait()

	if !s.Stopped() {
		t.Error("expected Stopped() = true after Stop()")
	}
}
