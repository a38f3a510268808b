package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestIsLimitedAdmitsExactlyMax(t *testing.T) {
	l := New(5, time.Minute, WithClock(newFakeClock().Now))

	want := []bool{false, false, false, false, false, true}
	for i, w := range want {
		if got := l.IsLimited("1.2.3.4"); got != w {
			t.Fatalf("call %d: IsLimited = %v, want %v", i+1, got, w)
		}
	}
}

func TestWindowSlides(t *testing.T) {
	clock := newFakeClock()
	l := New(2, time.Minute, WithClock(clock.Now))

	l.IsLimited("k")
	clock.Advance(30 * time.Second)
	l.IsLimited("k")

	if !l.IsLimited("k") {
		t.Fatal("third call inside the window should be limited")
	}

	// First stamp leaves the window, second is still live.
	clock.Advance(31 * time.Second)
	if l.IsLimited("k") {
		t.Fatal("a slot should free up once the oldest request leaves the window")
	}
	if !l.IsLimited("k") {
		t.Fatal("window should be full again")
	}

	clock.Advance(2 * time.Minute)
	if l.IsLimited("k") {
		t.Fatal("expected admission after waiting longer than the window")
	}
}

func TestRejectedAttemptsAreNotRecorded(t *testing.T) {
	clock := newFakeClock()
	l := New(1, time.Minute, WithClock(clock.Now))

	l.IsLimited("k")
	for i := 0; i < 10; i++ {
		clock.Advance(5 * time.Second)
		if !l.IsLimited("k") {
			t.Fatalf("attempt %d should be limited", i)
		}
	}

	// 60s after the single recorded request the key is free, regardless of
	// the rejected attempts in between.
	clock.Advance(10 * time.Second)
	if l.IsLimited("k") {
		t.Fatal("rejected attempts must not extend the window")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(2, time.Minute, WithClock(newFakeClock().Now))

	l.IsLimited("a")
	l.IsLimited("a")
	if !l.IsLimited("a") {
		t.Fatal("key a should be exhausted")
	}
	if l.IsLimited("b") {
		t.Fatal("key b must not be affected by key a")
	}
}

func TestZeroMaxAlwaysLimits(t *testing.T) {
	l := New(0, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.IsLimited("k") {
			t.Fatal("maxRequests=0 must always limit")
		}
	}
	if n := l.Len(); n != 0 {
		t.Errorf("a limiter that admits nothing should track no keys, got %d", n)
	}
}

func TestPruneDropsAbandonedKeys(t *testing.T) {
	clock := newFakeClock()
	l := New(3, time.Minute, WithClock(clock.Now), WithPruneInterval(time.Hour))

	l.IsLimited("one-shot")
	clock.Advance(45 * time.Second)
	l.IsLimited("recent")

	clock.Advance(30 * time.Second)
	l.Prune()

	if n := l.Len(); n != 1 {
		t.Fatalf("expected only the recent key to survive, got %d keys", n)
	}
	l.mu.Lock()
	_, ok := l.entries["recent"]
	l.mu.Unlock()
	if !ok {
		t.Fatal("recent key should still be tracked")
	}
}

func TestConcurrentIncrementsCountOnce(t *testing.T) {
	l := New(50, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !l.IsLimited("shared") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("expected exactly 50 admissions, got %d", admitted)
	}
}

func TestOpportunisticPruneFollowsClock(t *testing.T) {
	clock := newFakeClock()
	l := New(3, time.Minute, WithClock(clock.Now), WithPruneInterval(5*time.Minute))

	l.IsLimited("one-shot")
	clock.Advance(2 * time.Minute)
	l.IsLimited("second")
	if n := l.Len(); n != 2 {
		t.Fatalf("no sweep is due yet, expected 2 keys, got %d", n)
	}

	clock.Advance(4 * time.Minute)
	l.IsLimited("third")
	if n := l.Len(); n != 1 {
		t.Fatalf("sweep on the limiter clock should leave only the new key, got %d", n)
	}
}
