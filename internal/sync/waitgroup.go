package sync

import (
	"sync"
	"time"
)

// WaitGroupTimeout waits for wg, but gives up after timeout.
// It returns true when the timeout was hit first.
//
// The waiting goroutine is left behind on timeout and exits whenever wg is done.
func WaitGroupTimeout(wg *sync.WaitGroup, timeout time.Duration) (timedOut bool) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return false
	case <-timer.C:
		return true
	}
}
