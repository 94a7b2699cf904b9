package memory

import (
	"context"
	"sort"
	"sync"

	"familyshare/internal/group/models"
	"familyshare/internal/permission"
	id "familyshare/pkg/domain"
	"familyshare/pkg/platform/sentinel"
)

type memberKey struct {
	group id.GroupID
	user  id.UserID
}

type MemberStore struct {
	mu      sync.RWMutex
	members map[memberKey]*models.Member
}

func NewMemberStore() *MemberStore {
	return &MemberStore{members: make(map[memberKey]*models.Member)}
}

func (s *MemberStore) Create(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{member.GroupID, member.UserID}
	if _, exists := s.members[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.members[key] = copyMember(member)
	return nil
}

func (s *MemberStore) Find(_ context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberKey{groupID, userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyMember(m), nil
}

// ListByGroup returns members in join order.
func (s *MemberStore) ListByGroup(_ context.Context, groupID id.GroupID) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Member, 0)
	for key, m := range s.members {
		if key.group == groupID {
			out = append(out, copyMember(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].UserID.String() < out[j].UserID.String()
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (s *MemberStore) UpdatePermissions(_ context.Context, groupID id.GroupID, userID id.UserID, perms permission.Permissions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey{groupID, userID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.Permissions = perms
	return nil
}

func (s *MemberStore) UpdateRole(_ context.Context, groupID id.GroupID, userID id.UserID, role permission.Role, perms permission.Permissions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey{groupID, userID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.Role = role
	m.Permissions = perms
	return nil
}

func (s *MemberStore) Delete(_ context.Context, groupID id.GroupID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{groupID, userID}
	if _, ok := s.members[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.members, key)
	return nil
}

func copyMember(m *models.Member) *models.Member {
	cp := *m
	if m.InvitedBy != nil {
		invitedBy := *m.InvitedBy
		cp.InvitedBy = &invitedBy
	}
	return &cp
}
