// Package clock abstracts the time operations the relay loop depends on
// so that keepalive and idle-timeout behaviour can be tested without
// waiting ten minutes.
//
// Production code uses Real(); tests use Fake() and move time forward
// with Advance.
package clock

import "time"

// Clock is the subset of the time package used by the session and the
// event loop.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer returns a Timer that delivers the current time on C once
	// d has elapsed.  If d <= 0 it fires immediately.  Long-lived loops
	// reuse one Timer through Rearm.
	NewTimer(d time.Duration) *Timer
}

// Timer is a resettable one-shot timer.
type Timer struct {
	// C delivers the timer event.  Buffered with capacity 1.
	C <-chan time.Time

	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop prevents the Timer from firing.  It returns false if the timer
// already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset changes the timer to fire after d.  It returns true if the timer
// was active.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }

// Rearm stops t, discards an undelivered event and resets it to d.
func (t *Timer) Rearm(d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) *Timer {
	t := time.NewTimer(d)
	return &Timer{C: t.C, stopFunc: t.Stop, resetFunc: t.Reset}
}
