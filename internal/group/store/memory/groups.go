// Package memory holds map-backed stores for development and tests. Each store guards
// its maps with its own mutex and hands out copies.
package memory

import (
	"context"
	"sync"

	"familyshare/internal/group/models"
	id "familyshare/pkg/domain"
	"familyshare/pkg/platform/sentinel"
)

type GroupStore struct {
	mu          sync.RWMutex
	groups      map[id.GroupID]*models.Group
	inviteCodes map[string]id.GroupID
}

func NewGroupStore() *GroupStore {
	return &GroupStore{
		groups:      make(map[id.GroupID]*models.Group),
		inviteCodes: make(map[string]id.GroupID),
	}
}

func (s *GroupStore) Create(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.inviteCodes[group.InviteCode]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.groups[group.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	cp := *group
	s.groups[group.ID] = &cp
	s.inviteCodes[group.InviteCode] = group.ID
	return nil
}

func (s *GroupStore) FindByID(_ context.Context, groupID id.GroupID) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

// Update replaces the mutable fields. The invite code never changes.
func (s *GroupStore) Update(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.groups[group.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.Name = group.Name
	existing.Description = group.Description
	existing.IsActive = group.IsActive
	existing.UpdatedAt = group.UpdatedAt
	return nil
}
