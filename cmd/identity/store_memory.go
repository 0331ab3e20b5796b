package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store used when no database is configured
// (dev mode) and by tests. It mirrors the Postgres contract, including the
// uniqueness behavior: inserts fail on a normalized-email collision.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*User

	roles     []Lookup
	positions []Lookup
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		users:  make(map[int64]*User),
	}
}

// SeedLookups installs role/position lookup rows (dev mode convenience).
func (s *MemoryStore) SeedLookups(roles, positions []Lookup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append([]Lookup(nil), roles...)
	s.positions = append([]Lookup(nil), positions...)
}

func (s *MemoryStore) Create(_ context.Context, in CreateInput) (User, error) {
	const op = "identity.Create"

	if strings.TrimSpace(in.Email) == "" {
		return User{}, invalid(op, "email is required")
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, invalid(op, "password hash is required")
	}

	norm := NormalizeEmail(in.Email)
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.EmailNorm == norm {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
	}

	u := User{
		ID:           s.nextID,
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Email:        in.Email,
		EmailNorm:    norm,
		PasswordHash: in.PasswordHash,
		RoleID:       in.RoleID,
		PositionID:   in.PositionID,
		Status:       "active",
		CreatedAt:    now,
	}
	s.nextID++
	cp := u
	s.users[u.ID] = &cp
	return u, nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, emailNorm string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.EmailNorm == emailNorm {
			return *u, nil
		}
	}
	return User{}, NotFoundError{Op: "identity.GetByEmail", Resource: "user"}
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[id]; ok {
		return *u, nil
	}
	return User{}, NotFoundError{Op: "identity.GetByID", Resource: "user"}
}

func (s *MemoryStore) List(_ context.Context, start, limit int) ([]ListedUser, error) {
	if limit <= 0 {
		limit = 100
	}
	if start < 0 {
		start = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedDesc()
	if start >= len(all) {
		return []ListedUser{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	out := make([]ListedUser, 0, end-start)
	for _, u := range all[start:end] {
		out = append(out, ListedUser{
			ID:         u.ID,
			Firstname:  u.Firstname,
			Lastname:   u.Lastname,
			Role:       s.lookupName(s.roles, u.RoleID),
			RoleID:     u.RoleID,
			Position:   s.lookupName(s.positions, u.PositionID),
			PositionID: u.PositionID,
		})
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryStore) Patch(_ context.Context, id int64, p Patch) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, NotFoundError{Op: "identity.Patch", Resource: "user"}
	}

	if p.Firstname != nil {
		u.Firstname = *p.Firstname
	}
	if p.Lastname != nil {
		u.Lastname = *p.Lastname
	}
	if p.PositionID != nil {
		u.PositionID = p.PositionID
	}
	if p.RoleID != nil {
		u.RoleID = p.RoleID
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	return *u, nil
}

func (s *MemoryStore) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	if strings.TrimSpace(hash) == "" {
		return invalid("identity.UpdatePasswordHash", "empty hash")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return NotFoundError{Op: "identity.UpdatePasswordHash", Resource: "user"}
	}
	u.PasswordHash = hash
	return nil
}

func (s *MemoryStore) SetProfileImage(_ context.Context, id int64, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return NotFoundError{Op: "identity.SetProfileImage", Resource: "user"}
	}
	u.ProfileImage = &path
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return NotFoundError{Op: "identity.Delete", Resource: "user"}
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) Roles(_ context.Context) ([]Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Lookup(nil), s.roles...), nil
}

func (s *MemoryStore) Positions(_ context.Context) ([]Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Lookup(nil), s.positions...), nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Firstname != out[j].Firstname {
			return out[i].Firstname < out[j].Firstname
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) sortedDesc() []*User {
	all := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all
}

func (s *MemoryStore) lookupName(set []Lookup, id *int64) *string {
	if id == nil {
		return nil
	}
	for _, l := range set {
		if l.ID == *id {
			name := l.Name
			return &name
		}
	}
	return nil
}
