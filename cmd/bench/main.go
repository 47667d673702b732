// Command bench compares single-goroutine enqueue+dequeue cost of the
// queue implementations.
//
// Usage:
//
//	go run ./cmd/bench -n 10000000 -size 1024
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/randomizedcoder/ccq/internal/lock"
	"github.com/randomizedcoder/ccq/internal/queue"
)

type queueInfo struct {
	name  string
	queue queue.Queue[int]
}

func main() {
	iterations := flag.Int("n", 10_000_000, "number of iterations")
	size := flag.Int("size", 1024, "queue capacity")
	flag.Parse()

	fmt.Printf("Benchmarking queues (%d iterations, size=%d)\n", *iterations, *size)
	fmt.Println("─────────────────────────────────────────────────")

	queues := []queueInfo{{"Channel", queue.NewChannel[int](*size, nil)}}
	for _, s := range []lock.Strategy{lock.StrategyMutex, lock.StrategySpin} {
		q, err := queue.New[int](*size, queue.DefaultConfig(s))
		if err != nil {
			log.Fatalf("queue %s: %v", s, err)
		}
		queues = append(queues, queueInfo{"CCQ/" + s.String(), q})
	}

	results := make([]time.Duration, len(queues))
	for i, info := range queues {
		q := info.queue
		start := time.Now()
		for j := 0; j < *iterations; j++ {
			q.Enqueue(j)
			q.Dequeue()
		}
		results[i] = time.Since(start)
	}

	// Results
	fmt.Printf("\nResults (enqueue + dequeue per iteration):\n")
	baseline := float64(results[0].Nanoseconds()) / float64(*iterations)
	for i, info := range queues {
		perOp := float64(results[i].Nanoseconds()) / float64(*iterations)
		fmt.Printf("  %-12s %12v  %8.2f ns/op  %6.2fx\n", info.name, results[i], perOp, baseline/perOp)
	}

	// Extrapolate to ops/second
	fmt.Printf("\nThroughput (theoretical max):\n")
	for i, info := range queues {
		perOp := float64(results[i].Nanoseconds()) / float64(*iterations)
		fmt.Printf("  %-12s %8.2f M ops/sec\n", info.name, 1000/perOp)
	}
}
