// Package challenge implements one-time-code sign-in: a pending challenge is
// stored under a generated id until it is confirmed, expires or runs out of
// attempts, and a confirmed challenge yields an identity token.
package challenge

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrNotFound = errors.New("challenge: not found")
	ErrExpired  = errors.New("challenge: expired")
	ErrBackend  = errors.New("challenge: backend unavailable")
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Pending is a challenge awaiting confirmation. Only the code hash is kept.
type Pending struct {
	Channel     Channel `json:"ch"`
	Destination string  `json:"dst"`
	CodeHash    []byte  `json:"h"`
	Attempts    int     `json:"a"`
	ExpiresAt   int64   `json:"exp"`
}

func (p *Pending) expired(now time.Time) bool {
	return now.Unix() >= p.ExpiresAt
}

// Store holds pending challenges keyed by challenge id.
type Store interface {
	Save(ctx context.Context, id string, p *Pending, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Pending, error)
	// Delete reports whether the challenge existed. Only one caller can
	// consume a given challenge.
	Delete(ctx context.Context, id string) (bool, error)
	// RecordFailure counts a wrong code and drops the challenge once
	// maxAttempts is reached, reporting exceeded.
	RecordFailure(ctx context.Context, id string, maxAttempts int) (exceeded bool, err error)
}

// sweepEvery bounds how many saves may pass between sweeps of expired
// challenges, whatever the clock says.
const sweepEvery = 256

// MemoryStore is a process-local Store. Expired challenges are swept on
// Save at most once a minute or every sweepEvery saves.
type MemoryStore struct {
	now     func() time.Time
	sweeper *rate.Sometimes

	mu      sync.Mutex
	pending map[string]Pending
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		sweeper: &rate.Sometimes{Every: sweepEvery, Interval: time.Minute},
		pending: make(map[string]Pending),
	}
}

// WithClock replaces time.Now. Intended for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Save(_ context.Context, id string, p *Pending, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeper.Do(func() { s.pruneLocked(s.now()) })
	s.pending[id] = *p
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.expired(s.now()) {
		delete(s.pending, id)
		return nil, ErrExpired
	}
	return &p, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	delete(s.pending, id)
	return ok, nil
}

func (s *MemoryStore) RecordFailure(_ context.Context, id string, maxAttempts int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return false, ErrNotFound
	}
	if p.expired(s.now()) {
		delete(s.pending, id)
		return false, ErrExpired
	}
	p.Attempts++
	if p.Attempts >= maxAttempts {
		delete(s.pending, id)
		return true, nil
	}
	s.pending[id] = p
	return false, nil
}

// Prune drops every expired challenge.
func (s *MemoryStore) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
}

func (s *MemoryStore) pruneLocked(now time.Time) {
	for id, p := range s.pending {
		if p.expired(now) {
			delete(s.pending, id)
		}
	}
}

// Len reports the number of stored challenges, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
