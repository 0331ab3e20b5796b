package tasks

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
	rows   map[int64]*Task
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, rows: make(map[int64]*Task)}
}

func (s *MemoryStore) List(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.rows))
	for _, t := range s.rows {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.rows[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return *t, nil
}

func (s *MemoryStore) Create(_ context.Context, in CreateInput) (Task, error) {
	in = applyDefaults(in)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{
		ID:          s.nextID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.rows[t.ID] = &t
	return t, nil
}

func (s *MemoryStore) Patch(_ context.Context, id int64, p Patch) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.rows[id]
	if !ok {
		return Task{}, ErrNotFound
	}

	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	now := time.Now().UTC()
	t.UpdatedAt = &now
	return *t, nil
}

func (s *MemoryStore) Replace(_ context.Context, id int64, in CreateInput) (Task, error) {
	in = applyDefaults(in)

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.rows[id]
	if !ok {
		return Task{}, ErrNotFound
	}

	now := time.Now().UTC()
	t.Title = in.Title
	t.Description = in.Description
	t.Priority = in.Priority
	t.Status = in.Status
	t.UpdatedAt = &now
	return *t, nil
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
