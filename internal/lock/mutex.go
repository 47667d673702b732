package lock

import "time"

// MutexLock is a blocking lock with a bounded wait.
//
// The lock is a one-slot channel: holding it means owning the slot. A
// contended Acquire parks the goroutine in the scheduler until the slot
// frees up or the timeout passes, so waiters do not burn CPU.
type MutexLock struct {
	sem     chan struct{}
	timeout time.Duration
}

// NewMutex creates a MutexLock whose Acquire waits at most timeout.
func NewMutex(timeout time.Duration) *MutexLock {
	if timeout < 0 {
		timeout = 0
	}
	return &MutexLock{
		sem:     make(chan struct{}, 1),
		timeout: timeout,
	}
}

// Acquire takes the lock, waiting at most the configured timeout.
func (m *MutexLock) Acquire() bool {
	select {
	case m.sem <- struct{}{}:
		return true
	default:
	}
	if m.timeout == 0 {
		return false
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()
	select {
	case m.sem <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// Release frees the lock. Returns false if the lock was not held.
func (m *MutexLock) Release() bool {
	select {
	case <-m.sem:
		return true
	default:
		return false
	}
}

// Timeout returns the acquire timeout.
func (m *MutexLock) Timeout() time.Duration {
	return m.timeout
}
