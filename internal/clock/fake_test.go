package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_Now(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Now = %v, want %v", c.Now(), epoch)
	}
	c.Advance(601 * time.Second)
	if got := c.Now().Sub(epoch); got != 601*time.Second {
		t.Errorf("elapsed = %v, want 601s", got)
	}
}

func TestFake_TimerFiresOnDeadline(t *testing.T) {
	c := Fake(epoch)
	ch := c.NewTimer(10 * time.Minute).C

	c.Advance(9 * time.Minute)
	select {
	case <-ch:
		t.Fatal("fired early")
	default:
	}

	c.Advance(time.Minute)
	select {
	case got := <-ch:
		if want := epoch.Add(10 * time.Minute); !got.Equal(want) {
			t.Errorf("fired with %v, want %v", got, want)
		}
	default:
		t.Fatal("did not fire at deadline")
	}
	if c.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", c.PendingCount())
	}
}

func TestFake_TimerNonPositive(t *testing.T) {
	c := Fake(epoch)
	select {
	case <-c.NewTimer(0).C:
	default:
		t.Fatal("NewTimer(0) should fire immediately")
	}
}

func TestFake_WaitForTimers(t *testing.T) {
	c := Fake(epoch)
	fired := make(chan struct{})
	go func() {
		<-c.NewTimer(time.Second).C
		close(fired)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Second)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never fired")
	}
}

func TestFake_TimerStopReset(t *testing.T) {
	c := Fake(epoch)
	tm := c.NewTimer(time.Minute)
	if c.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", c.PendingCount())
	}

	if !tm.Stop() {
		t.Error("Stop of a pending timer should return true")
	}
	if tm.Stop() {
		t.Error("second Stop should return false")
	}
	c.Advance(time.Hour)
	select {
	case <-tm.C:
		t.Fatal("stopped timer fired")
	default:
	}

	if tm.Reset(time.Minute) {
		t.Error("Reset of a stopped timer should return false")
	}
	c.Advance(time.Minute)
	select {
	case <-tm.C:
	default:
		t.Fatal("reset timer did not fire")
	}
}

func TestFake_TimerRearmKeepsOneWaiter(t *testing.T) {
	c := Fake(epoch)
	tm := c.NewTimer(10 * time.Minute)

	for i := 0; i < 100; i++ {
		c.Advance(time.Second)
		tm.Rearm(10 * time.Minute)
	}
	if c.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", c.PendingCount())
	}

	// The deadline moved with every rearm.
	c.Advance(10*time.Minute - time.Second)
	select {
	case <-tm.C:
		t.Fatal("fired before the rearmed deadline")
	default:
	}
	c.Advance(time.Second)
	select {
	case <-tm.C:
	default:
		t.Fatal("did not fire at the rearmed deadline")
	}
}

func TestFake_RearmDiscardsUnreadEvent(t *testing.T) {
	c := Fake(epoch)
	tm := c.NewTimer(time.Second)
	c.Advance(time.Second)

	tm.Rearm(time.Minute)
	select {
	case <-tm.C:
		t.Fatal("stale event survived Rearm")
	default:
	}
}

func TestReal(t *testing.T) {
	c := Real()
	before := time.Now()
	if c.Now().Before(before) {
		t.Error("real clock went backwards")
	}
	tm := c.NewTimer(time.Millisecond)
	select {
	case <-tm.C:
	case <-time.After(time.Second):
		t.Fatal("real timer never fired")
	}
}

func TestReal_TimerRearm(t *testing.T) {
	tm := Real().NewTimer(time.Hour)
	defer tm.Stop()

	tm.Rearm(time.Millisecond)
	select {
	case <-tm.C:
	case <-time.After(time.Second):
		t.Fatal("rearmed real timer never fired")
	}
}
