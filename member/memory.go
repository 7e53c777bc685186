package member

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]*Member
	nextID int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byName: make(map[string]*Member)}
}

// FindByUsername returns a copy of the member named username.
func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	return m.clone(), nil
}

// Create stores m and assigns its ID.
func (s *MemoryStore) Create(_ context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[m.Username]; exists {
		return ErrDuplicate
	}
	s.nextID++
	m.ID = s.nextID
	s.byName[m.Username] = m.clone()
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
