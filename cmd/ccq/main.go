// Command ccq runs producers and consumers over one queue and verifies
// that every message arrives exactly once and in per-producer order.
//
// Usage:
//
//	go run ./cmd/ccq -capacity 10 -producers 4 -consumers 4 -n 100000 -lock spin
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/randomizedcoder/ccq/internal/harness"
	"github.com/randomizedcoder/ccq/internal/lock"
	"github.com/randomizedcoder/ccq/internal/queue"
)

func main() {
	def := harness.DefaultConfig()

	capacity := flag.Int("capacity", def.Capacity, "queue capacity")
	producers := flag.Int("producers", def.Producers, "number of producers")
	consumers := flag.Int("consumers", def.Consumers, "number of consumers")
	messages := flag.Int("n", def.Messages, "messages per producer")
	strategy := flag.String("lock", "spin", "lock strategy: mutex or spin")
	acquireTimeout := flag.Duration("acquire-timeout", 0, "mutex acquire timeout (0 for the default)")
	timeout := flag.Duration("timeout", def.Timeout, "give up after this long (0 for no limit)")
	pin := flag.Bool("pin", false, "lock each worker to its own OS thread")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	verbose := flag.Bool("v", false, "print every delivered message")
	flag.Parse()

	s, err := lock.ParseStrategy(*strategy)
	if err != nil {
		log.Fatalf("ccq: %v", err)
	}

	cfg := def
	cfg.Capacity = *capacity
	cfg.Producers = *producers
	cfg.Consumers = *consumers
	cfg.Messages = *messages
	cfg.Queue = queue.DefaultConfig(s)
	if *acquireTimeout > 0 {
		cfg.Queue.Lock.AcquireTimeout = *acquireTimeout
	}
	cfg.Timeout = *timeout
	cfg.LockThreads = *pin
	if *verbose {
		cfg.OnDeliver = func(d harness.Delivery) {
			log.Printf("consumer %d: %q (%v in queue)", d.Consumer, d.Message.Body, d.InQueue)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*asJSON {
		fmt.Printf("Running %d producers x %d messages -> %d consumers (%s, capacity %d)\n",
			cfg.Producers, cfg.Messages, cfg.Consumers, s, cfg.Capacity)
	}

	start := time.Now()
	rep, runErr := harness.Run(ctx, cfg)
	if rep == nil {
		log.Fatalf("ccq: %v", runErr)
	}

	if *asJSON {
		data, err := rep.JSON()
		if err != nil {
			log.Fatalf("ccq: encode report: %v", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Println()
		rep.WriteText(os.Stdout)
		fmt.Printf("\nTotal wall time: %v\n", time.Since(start))
	}

	if runErr != nil {
		log.Printf("ccq: %v", runErr)
		os.Exit(1)
	}
}
