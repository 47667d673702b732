// Command clock measures the cost and resolution of the clock sources
// and checks that a timer expires on time.
//
// Usage:
//
//	go run ./cmd/clock -n 10000000 -expire 2s
package main

import (
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/randomizedcoder/ccq/internal/clock"
)

type sourceInfo struct {
	name   string
	create func() clock.Source
}

func main() {
	iterations := flag.Int("n", 10_000_000, "number of clock reads")
	expire := flag.Duration("expire", 2*time.Second, "timer expiry test duration (0 to skip)")
	poll := flag.Duration("poll", 250*time.Millisecond, "progress interval during the expiry test")
	flag.Parse()

	fmt.Printf("Benchmarking clock reads (%d iterations)\n", *iterations)
	fmt.Printf("Architecture: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Println("─────────────────────────────────────────────────")

	sources := []sourceInfo{
		{"Std", func() clock.Source { return clock.NewStd() }},
		{"Monotonic", func() clock.Source { return clock.NewMonotonic() }},
		{"Coarse(1000)", func() clock.Source { return clock.NewCoarse(clock.NewMonotonic(), 1000) }},
	}

	results := make([]time.Duration, len(sources))
	duplicates := make([]int, len(sources))

	for i, info := range sources {
		src := info.create()
		prev := src.NowNs()
		start := time.Now()
		for j := 0; j < *iterations; j++ {
			now := src.NowNs()
			if now == prev {
				duplicates[i]++
			}
			prev = now
		}
		results[i] = time.Since(start)
	}

	// Print results
	fmt.Printf("\nResults:\n")
	baseline := float64(results[0].Nanoseconds()) / float64(*iterations)

	for i, info := range sources {
		perOp := float64(results[i].Nanoseconds()) / float64(*iterations)
		speedup := baseline / perOp
		dupRate := float64(duplicates[i]) / float64(*iterations)

		fmt.Printf("  %-16s %12v  %8.2f ns/op  %6.2fx  dup rate %.3f\n",
			info.name, results[i], perOp, speedup, dupRate)
	}

	fmt.Printf("\nNote: a duplicate is a read equal to the previous one; Coarse trades\n")
	fmt.Printf("resolution for cost by reading its source only every N calls.\n")

	if *expire <= 0 {
		return
	}

	src := clock.Default()
	lap := clock.NewLap(src)

	fmt.Printf("\nStarting expired test (%v)\n", *expire)
	t := clock.NewTimer(src, *expire)
	waitExpired(t, lap, *poll)

	fmt.Printf("Testing reset (%v)\n", *expire/2)
	t.Reset(*expire / 2)
	waitExpired(t, lap, *poll)
}

// waitExpired polls t, printing a dot every poll, then reports how long
// it took.
func waitExpired(t *clock.Timer, lap *clock.Lap, poll time.Duration) {
	lap.Mark()
	for !t.Expired() {
		fmt.Print(".")
		spinwait(poll)
	}
	d := time.Duration(lap.Mark())
	fmt.Printf("\n  Loop duration: %v (remaining %v)\n", d, t.Remaining())
}

// spinwait burns the CPU until d has passed.
func spinwait(d time.Duration) {
	t := clock.NewTimer(clock.Default(), d)
	for !t.Expired() {
	}
}
