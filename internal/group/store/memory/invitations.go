package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"familyshare/internal/group/models"
	id "familyshare/pkg/domain"
	"familyshare/pkg/platform/sentinel"
)

type InvitationStore struct {
	mu          sync.RWMutex
	invitations map[id.InvitationID]*models.Invitation
	byHash      map[string]id.InvitationID
}

func NewInvitationStore() *InvitationStore {
	return &InvitationStore{
		invitations: make(map[id.InvitationID]*models.Invitation),
		byHash:      make(map[string]id.InvitationID),
	}
}

func (s *InvitationStore) Create(_ context.Context, inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byHash[inv.TokenHash]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.invitations[inv.ID] = copyInvitation(inv)
	s.byHash[inv.TokenHash] = inv.ID
	return nil
}

func (s *InvitationStore) FindByTokenHash(_ context.Context, tokenHash string) (*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invID, ok := s.byHash[tokenHash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyInvitation(s.invitations[invID]), nil
}

// MarkAccepted is a compare-and-set on AcceptedAt.
func (s *InvitationStore) MarkAccepted(_ context.Context, invitationID id.InvitationID, acceptedBy id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[invitationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if inv.AcceptedAt != nil {
		return sentinel.ErrAlreadyUsed
	}
	inv.AcceptedAt = &at
	inv.AcceptedBy = &acceptedBy
	return nil
}

// ListPendingByGroup returns unaccepted invitations that have not expired at now, newest
// first.
func (s *InvitationStore) ListPendingByGroup(_ context.Context, groupID id.GroupID, now time.Time) ([]*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Invitation, 0)
	for _, inv := range s.invitations {
		if inv.GroupID == groupID && inv.Status(now) == models.InvitationPending {
			out = append(out, copyInvitation(inv))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func copyInvitation(inv *models.Invitation) *models.Invitation {
	cp := *inv
	if inv.AcceptedAt != nil {
		at := *inv.AcceptedAt
		cp.AcceptedAt = &at
	}
	if inv.AcceptedBy != nil {
		by := *inv.AcceptedBy
		cp.AcceptedBy = &by
	}
	return &cp
}
