// Package combined provides interaction benchmarks that put the queue,
// its locks, the clock and the stop signal together.
//
// These benchmarks are more representative of real producer/consumer
// hand-off than the per-package micro-benchmarks, as they capture the
// cumulative cost of a worker's hot loop and the contention between
// goroutines sharing one queue.
package combined
