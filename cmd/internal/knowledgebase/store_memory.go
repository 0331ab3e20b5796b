package knowledgebase

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
	rows   map[int64]*Article
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, rows: make(map[int64]*Article)}
}

func (s *MemoryStore) ListBatch(_ context.Context, start, limit int) ([]Article, error) {
	start, limit = ClampPage(start, limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]Article, 0, len(s.rows))
	for _, a := range s.rows {
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if start >= len(all) {
		return []Article{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return Article{}, ErrNotFound
	}
	return *a, nil
}

func (s *MemoryStore) Create(_ context.Context, in CreateInput) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := Article{
		ID:          s.nextID,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.rows[a.ID] = &a
	return a, nil
}

func (s *MemoryStore) Patch(_ context.Context, id int64, p Patch) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return Article{}, ErrNotFound
	}

	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	now := time.Now().UTC()
	a.UpdatedAt = &now
	return *a, nil
}

func (s *MemoryStore) Replace(_ context.Context, id int64, in CreateInput) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return Article{}, ErrNotFound
	}

	now := time.Now().UTC()
	a.Title = in.Title
	a.Description = in.Description
	a.UpdatedAt = &now
	return *a, nil
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
