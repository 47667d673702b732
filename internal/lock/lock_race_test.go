package lock_test

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/randomizedcoder/ccq/internal/lock"
)

// testMutualExclusion increments a plain counter from many goroutines,
// retrying failed acquires. Any overlap shows up as a lost update, and
// under -race as a data race.
// Run with: go test -race ./internal/lock
func testMutualExclusion(t *testing.T, l lock.Locker) {
	t.Helper()

	const (
		workers = 8
		perWork = 2000
	)

	var (
		wg       sync.WaitGroup
		counter  int
		inside   int
		overlaps int
	)
	retry := lock.Retry{Attempts: 100, Interval: time.Microsecond}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				for !l.Acquire() {
					runtime.Gosched()
				}
				inside++
				if inside != 1 {
					overlaps++
				}
				counter++
				inside--
				if !retry.Release(l) {
					t.Error("release failed")
					return
				}
			}
		}()
	}
	wg.Wait()

	if counter != workers*perWork {
		t.Errorf("expected counter %d, got %d", workers*perWork, counter)
	}
	if overlaps != 0 {
		t.Errorf("observed %d overlapping critical sections", overlaps)
	}
}

func TestMutex_Race(t *testing.T) {
	testMutualExclusion(t, lock.NewMutex(time.Millisecond))
}

func TestSpin_Race(t *testing.T) {
	testMutualExclusion(t, lock.NewSpin(lock.DefaultAcquireAttempts, lock.DefaultReleaseAttempts, lock.DefaultYieldEvery))
}

func TestSpin_RaceNoYield(t *testing.T) {
	testMutualExclusion(t, lock.NewSpin(64, 1, 0))
}
