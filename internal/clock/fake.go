package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock.  Time stands still until Advance
// is called; pending timers fire when the clock
// passes their deadline.  Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeWaiter
	changed *sync.Cond
}

type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time
}

// Fake returns a FakeClock set to initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NewTimer registers a waiter that can be stopped and rescheduled.
func (c *FakeClock) NewTimer(d time.Duration) *Timer {
	ch := make(chan time.Time, 1)
	w := &fakeWaiter{channel: ch}

	c.mu.Lock()
	c.schedule(w, d)
	c.mu.Unlock()

	return &Timer{
		C: ch,
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.remove(w)
		},
		resetFunc: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			active := c.remove(w)
			c.schedule(w, d)
			return active
		},
	}
}

// schedule fires w now if d <= 0, otherwise queues it.  c.mu is held.
func (c *FakeClock) schedule(w *fakeWaiter, d time.Duration) {
	if d <= 0 {
		w.fire(c.current)
		return
	}
	w.deadline = c.current.Add(d)
	c.waiters = append(c.waiters, w)
	c.changed.Broadcast()
}

// remove unqueues w and reports whether it was pending.  c.mu is held.
func (c *FakeClock) remove(w *fakeWaiter) bool {
	for i, p := range c.waiters {
		if p == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// fire delivers now unless an earlier event is still unread.
func (w *fakeWaiter) fire(now time.Time) {
	select {
	case w.channel <- now:
	default:
	}
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline has been reached, in deadline order.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	now := c.current

	var due, pending []*fakeWaiter
	for _, w := range c.waiters {
		if w.deadline.After(now) {
			pending = append(pending, w)
		} else {
			due = append(due, w)
		}
	}
	c.waiters = pending
	c.changed.Broadcast()

	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, w := range due {
		w.fire(now)
	}
}

// WaitForTimers blocks until at least n waiters are pending.  Tests call
// it before Advance so the goroutine under test has registered its
// timer.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of registered, unfired waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
