package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used when the server runs without a
// database, and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	tokens map[string]RefreshToken
	audit  []AuditEntry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, tokens: make(map[string]RefreshToken)}
}

func (s *MemoryStore) CreateWithAudit(_ context.Context, rt RefreshToken, entry AuditEntry) (RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt.ID = s.nextID
	s.nextID++
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now().UTC()
	}
	s.tokens[rt.Token] = rt

	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	s.audit = append(s.audit, entry)
	return rt, nil
}

func (s *MemoryStore) GetByToken(_ context.Context, token string) (RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.tokens[token]
	if !ok {
		return RefreshToken{}, ErrInvalidRefreshToken
	}
	return rt, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for token, rt := range s.tokens {
		if !rt.ExpiresAt.After(now) {
			delete(s.tokens, token)
			n++
		}
	}
	return n, nil
}

// AuditEntries returns a copy of the recorded audit trail.
func (s *MemoryStore) AuditEntries() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEntry(nil), s.audit...)
}
