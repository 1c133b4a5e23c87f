package route

import (
	"context"
	"sync"
)

// MemoryStore keeps routes in process memory. Used by the offline demo and
// when the API runs without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	routes map[string]Route
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{routes: make(map[string]Route)}
}

func (m *MemoryStore) Save(_ context.Context, r *Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	cp.Segments = append([]Segment(nil), r.Segments...)
	m.routes[r.ID] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Segments = append([]Segment(nil), r.Segments...)
	return &r, nil
}
