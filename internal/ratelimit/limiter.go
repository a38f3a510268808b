// Package ratelimit bounds how often a single client may invoke an expensive
// or privileged operation within a rolling window.
//
// State is process-local and resets on restart. This is abuse mitigation,
// not a security boundary.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rahal-app/rahal-backend/internal/metrics"
)

// DefaultPruneInterval is how often a limiter sweeps abandoned keys.
const DefaultPruneInterval = time.Minute

// Limiter is a sliding-window request counter keyed by client identity.
// A Limiter is safe for concurrent use.
type Limiter struct {
	name        string
	maxRequests int
	window      time.Duration
	now         func() time.Time
	metrics     *metrics.Metrics
	pruneEvery  time.Duration

	mu        sync.Mutex
	lastPrune time.Time
	entries   map[string][]time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now for window and prune scheduling.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithPruneInterval sets the minimum time between global sweeps, measured on
// the limiter's clock.
func WithPruneInterval(d time.Duration) Option {
	return func(l *Limiter) { l.pruneEvery = d }
}

// WithName labels rejections in metrics.
func WithName(name string) Option {
	return func(l *Limiter) { l.name = name }
}

// WithMetrics records rejections on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

// New returns a limiter admitting at most maxRequests per window for each
// key. maxRequests of zero admits nothing.
func New(maxRequests int, window time.Duration, opts ...Option) *Limiter {
	if maxRequests < 0 {
		maxRequests = 0
	}
	l := &Limiter{
		name:        "default",
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		pruneEvery:  DefaultPruneInterval,
		entries:     make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Window returns the configured window size.
func (l *Limiter) Window() time.Duration { return l.window }

// IsLimited reports whether the caller identified by key must be rejected.
// A rejected attempt is not recorded, so a client that keeps hammering does
// not extend its own lockout.
func (l *Limiter) IsLimited(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) >= l.pruneEvery {
		l.pruneLocked(now)
	}

	stamps := l.live(l.entries[key], now)
	if len(stamps) >= l.maxRequests {
		if len(stamps) == 0 {
			delete(l.entries, key)
		} else {
			l.entries[key] = stamps
		}
		l.metrics.RateLimited(l.name)
		return true
	}

	l.entries[key] = append(stamps, now)
	return false
}

// Prune drops stale timestamps for every key and forgets keys with none left.
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) pruneLocked(now time.Time) {
	l.lastPrune = now
	for key, stamps := range l.entries {
		stamps = l.live(stamps, now)
		if len(stamps) == 0 {
			delete(l.entries, key)
			continue
		}
		l.entries[key] = stamps
	}
}

// live returns the suffix of stamps still inside the window. stamps is
// ordered oldest first.
func (l *Limiter) live(stamps []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(stamps) && now.Sub(stamps[i]) >= l.window {
		i++
	}
	return stamps[i:]
}
