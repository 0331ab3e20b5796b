package notifications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used when the server runs without a
// database, and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*Notification
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, rows: make(map[int64]*Notification)}
}

func (s *MemoryStore) ListAll(_ context.Context) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedDesc(func(*Notification) bool { return true }), nil
}

func (s *MemoryStore) ListForUser(_ context.Context, userID int64) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedDesc(func(n *Notification) bool { return n.UserID == userID }), nil
}

func (s *MemoryStore) Create(_ context.Context, in CreateInput) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := Notification{
		ID:        s.nextID,
		UserID:    in.UserID,
		Title:     in.Title,
		Message:   in.Message,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++
	s.rows[n.ID] = &n
	return n, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *MemoryStore) sortedDesc(keep func(*Notification) bool) []Notification {
	out := make([]Notification, 0, len(s.rows))
	for _, n := range s.rows {
		if keep(n) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
