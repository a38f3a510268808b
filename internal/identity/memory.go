package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryAccountStore keeps accounts in process memory. It backs tests and
// local development without a database.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*UserRecord
	now      func() time.Time
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[string]*UserRecord),
		now:      time.Now,
	}
}

func (s *MemoryAccountStore) Get(ctx context.Context, uid string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.accounts[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryAccountStore) Upsert(ctx context.Context, id Identity) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.accounts[id.UID]
	if !ok {
		rec = &UserRecord{UID: id.UID, CreatedAt: now}
		s.accounts[id.UID] = rec
	}
	applyIdentity(rec, id)
	rec.UpdatedAt = now
	return cloneRecord(rec), nil
}

func (s *MemoryAccountStore) SetClaims(ctx context.Context, uid string, claims map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.accounts[uid]
	if !ok {
		return ErrUserNotFound
	}
	rec.CustomClaims = CopyClaims(claims)
	rec.UpdatedAt = s.now()
	return nil
}

// applyIdentity refreshes contact fields without clearing ones the sign-in
// method did not prove.
func applyIdentity(rec *UserRecord, id Identity) {
	if id.Email != "" {
		rec.Email = id.Email
		rec.EmailVerified = id.EmailVerified
	}
	if id.Phone != "" {
		rec.Phone = id.Phone
	}
}

func cloneRecord(rec *UserRecord) *UserRecord {
	cp := *rec
	cp.CustomClaims = CopyClaims(rec.CustomClaims)
	return &cp
}
