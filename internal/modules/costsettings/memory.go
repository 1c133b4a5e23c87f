package costsettings

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an append-only in-process settings history with the same
// version conflict semantics as Store.
type MemoryStore struct {
	mu       sync.Mutex
	versions map[string][]CostSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string][]CostSettings)}
}

func (m *MemoryStore) Append(_ context.Context, cs CostSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions[cs.RouteID()] {
		if v.Version() == cs.Version() {
			return ErrVersionConflict
		}
	}
	m.versions[cs.RouteID()] = append(m.versions[cs.RouteID()], cs)
	return nil
}

func (m *MemoryStore) Latest(_ context.Context, routeID string) (CostSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.versions[routeID]
	if len(vs) == 0 {
		return CostSettings{}, ErrNotFound
	}
	latest := vs[0]
	for _, v := range vs[1:] {
		if latest.Version().Less(v.Version()) {
			latest = v
		}
	}
	return latest, nil
}

// History returns newest first. limit <= 0 means the store default of 50.
func (m *MemoryStore) History(_ context.Context, routeID string, limit int) ([]CostSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	out := append([]CostSettings(nil), m.versions[routeID]...)
	sort.Slice(out, func(i, j int) bool { return out[j].Version().Less(out[i].Version()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
