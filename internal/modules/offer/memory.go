package offer

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps offers and their status events in process memory with
// the same optimistic status update semantics as Store.
type MemoryStore struct {
	mu     sync.Mutex
	offers map[string]Offer
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{offers: make(map[string]Offer)}
}

func (m *MemoryStore) Create(_ context.Context, o *Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers[o.ID] = *o
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *MemoryStore) List(_ context.Context, f Filter) ([]*Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Offer
	for _, o := range m.offers {
		if f.RouteID != "" && o.RouteID != f.RouteID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if !f.ValidBefore.IsZero() && o.ValidUntil.After(f.ValidBefore) {
			continue
		}
		o := o
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, from, to Status, version int, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok || o.Status != from || o.StatusVersion != version {
		return false, nil
	}
	o.Status = to
	o.StatusVersion++
	o.StatusChangedAt = at
	m.offers[id] = o
	return true, nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := *e
	ev.ID = int64(len(m.events) + 1)
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryStore) Events(_ context.Context, offerID string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.OfferID == offerID {
			out = append(out, e)
		}
	}
	return out, nil
}
