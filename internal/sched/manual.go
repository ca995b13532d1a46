package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by explicit Advance calls. Timers fire
// synchronously, in deadline order, on the goroutine that calls
// Advance. It exists for deterministic tests.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers []*manualTimer
}

type manualTimer struct {
	id       int
	deadline time.Time
	period   time.Duration // zero for one-shot timers
	fn       func()
	stopped  bool
}

// NewManual returns a manual scheduler starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the simulated current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After registers a one-shot timer.
func (m *Manual) After(d time.Duration, fn func()) CancelFunc {
	return m.add(d, 0, fn)
}

// Every registers a repeating timer.
func (m *Manual) Every(d time.Duration, fn func()) CancelFunc {
	return m.add(d, d, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	t := &manualTimer{
		id:       m.nextID,
		deadline: m.now.Add(d),
		period:   period,
		fn:       fn,
	}
	m.timers = append(m.timers, t)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		t.stopped = true
	}
}

// Advance moves the clock forward by d, firing every timer whose
// deadline falls within the window. Repeating timers are re-armed and
// may fire multiple times in one Advance.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)

	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}

		m.now = t.deadline
		if t.period > 0 {
			t.deadline = t.deadline.Add(t.period)
		} else {
			t.stopped = true
		}

		fn := t.fn
		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}

	m.now = target
	m.compact()
	m.mu.Unlock()
}

// PendingTimers returns the number of armed timers.
func (m *Manual) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// nextDue returns the earliest live timer due at or before target.
// Ties break by registration order. Caller holds the lock.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	live := make([]*manualTimer, 0, len(m.timers))
	for _, t := range m.timers {
		if !t.stopped && !t.deadline.After(target) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].deadline.Equal(live[j].deadline) {
			return live[i].id < live[j].id
		}
		return live[i].deadline.Before(live[j].deadline)
	})
	return live[0]
}

// compact drops stopped timers. Caller holds the lock.
func (m *Manual) compact() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			kept = append(kept, t)
		}
	}
	m.timers = kept
}
