package memory

import (
	"context"
	"sort"
	"sync"

	"familyshare/internal/audit"
	id "familyshare/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.GroupID][]audit.Entry
}

func New() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.GroupID][]audit.Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.GroupID] = append(s.entries[entry.GroupID], entry)
	return nil
}

// ListByGroup returns up to limit entries newest first; limit <= 0 returns all.
func (s *InMemoryStore) ListByGroup(_ context.Context, groupID id.GroupID, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	stored := s.entries[groupID]
	out := make([]audit.Entry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListAll returns every entry in append order.
func (s *InMemoryStore) ListAll() []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []audit.Entry
	for _, entries := range s.entries {
		all = append(all, entries...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all
}
