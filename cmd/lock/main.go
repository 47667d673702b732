// Command lock measures uncontended lock cost and checks mutual exclusion
// under contention for each lock strategy.
//
// Usage:
//
//	go run ./cmd/lock -n 10000000 -workers 5 -rounds 100000
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/randomizedcoder/ccq/internal/harness"
	"github.com/randomizedcoder/ccq/internal/lock"
)

func main() {
	iterations := flag.Int("n", 10_000_000, "number of uncontended acquire/release pairs")
	workers := flag.Int("workers", 5, "goroutines contending for the lock")
	rounds := flag.Int("rounds", 100_000, "increments per worker")
	flag.Parse()

	strategies := []lock.Strategy{lock.StrategyMutex, lock.StrategySpin}

	fmt.Printf("Benchmarking lock acquire+release (%d iterations)\n", *iterations)
	fmt.Println("─────────────────────────────────────────────────")

	perOp := make([]float64, len(strategies))
	for i, s := range strategies {
		l := mustLock(s)
		start := time.Now()
		for j := 0; j < *iterations; j++ {
			l.Acquire()
			l.Release()
		}
		perOp[i] = float64(time.Since(start).Nanoseconds()) / float64(*iterations)
	}

	fmt.Printf("\nResults:\n")
	for i, s := range strategies {
		fmt.Printf("  %-8s %8.2f ns/op  %8.2f M ops/sec\n", s, perOp[i], 1000/perOp[i])
	}
	if perOp[1] < perOp[0] {
		fmt.Printf("\n  Speedup:  %.2fx (spin faster)\n", perOp[0]/perOp[1])
	} else {
		fmt.Printf("\n  Speedup:  %.2fx (mutex faster)\n", perOp[1]/perOp[0])
	}

	fmt.Printf("\nContention (%d workers x %d increments):\n", *workers, *rounds)
	fmt.Println("─────────────────────────────────────────────────")

	backoff := harness.DefaultBackoff()
	for _, s := range strategies {
		l := mustLock(s)
		var counter int
		failures := make([]int, *workers)

		start := time.Now()
		threads := make([]*harness.Thread, *workers)
		for w := range threads {
			threads[w] = harness.Spawn(func(arg any) {
				self := arg.(int)
				for i := 0; i < *rounds; i++ {
					for attempt := 0; !l.Acquire(); attempt++ {
						failures[self]++
						backoff.Wait(attempt)
					}
					counter++
					if !lock.DefaultRetry().Release(l) {
						log.Fatalf("%s: worker %d failed to release the lock", s, self)
					}
				}
			}, w)
		}
		harness.JoinAll(threads...)
		dur := time.Since(start)

		var failed int
		for _, n := range failures {
			failed += n
		}
		status := "OK"
		if counter != *workers**rounds {
			status = "LOST UPDATES"
		}
		fmt.Printf("  %-8s counter %d of %d  %v  %d failed acquires  %s\n",
			s, counter, *workers**rounds, dur, failed, status)
	}
}

func mustLock(s lock.Strategy) lock.Locker {
	l, err := lock.New(lock.DefaultConfig(s))
	if err != nil {
		log.Fatalf("lock %s: %v", s, err)
	}
	return l
}
