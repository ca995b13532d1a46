// Package sched provides the clock and timer abstraction used by the
// dashboard. Components schedule work through a Scheduler instead of
// the time package directly, so timer-driven behavior (transient
// markers, notification dismissal, auto-refresh) is deterministic in
// tests.
package sched

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled callback. Calling it after the
// callback has fired is a no-op.
type CancelFunc func()

// Scheduler abstracts wall-clock reads and timer scheduling.
type Scheduler interface {
	// Now returns the current time.
	Now() time.Time

	// After runs fn once after d has elapsed.
	After(d time.Duration, fn func()) CancelFunc

	// Every runs fn repeatedly with period d until cancelled.
	Every(d time.Duration, fn func()) CancelFunc
}

// Real is the production Scheduler backed by the time package.
type Real struct{}

// NewReal returns the production scheduler.
func NewReal() *Real {
	return &Real{}
}

// Now returns the current wall-clock time.
func (*Real) Now() time.Time {
	return time.Now()
}

// After schedules fn on a time.AfterFunc timer.
func (*Real) After(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Every runs fn on a ticker goroutine until cancelled.
func (*Real) Every(d time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
