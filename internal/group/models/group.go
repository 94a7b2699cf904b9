package models

import (
	"strings"
	"time"

	"familyshare/internal/permission"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
)

const (
	maxGroupNameLength        = 100
	maxGroupDescriptionLength = 1000
)

// Group is the sharing boundary around one child record.
//
// Invariants:
//   - Name is non-empty after trimming
//   - InviteCode is informational; it never grants membership by itself
//   - Groups are deactivated, never deleted
type Group struct {
	ID          id.GroupID `json:"id"`
	ChildID     id.ChildID `json:"child_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	InviteCode  string     `json:"invite_code"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewGroup validates and builds an active group.
func NewGroup(groupID id.GroupID, childID id.ChildID, name, description, inviteCode string, now time.Time) (*Group, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if childID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "child_id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "group name is required")
	}
	if len(name) > maxGroupNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "group name must be at most 100 characters")
	}
	if len(description) > maxGroupDescriptionLength {
		return nil, dErrors.New(dErrors.CodeValidation, "group description must be at most 1000 characters")
	}
	return &Group{
		ID:          groupID,
		ChildID:     childID,
		Name:        name,
		Description: description,
		InviteCode:  inviteCode,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Deactivate flips the group inactive. Deactivating twice is a conflict.
func (g *Group) Deactivate(now time.Time) error {
	if !g.IsActive {
		return dErrors.New(dErrors.CodeConflict, "group is already inactive")
	}
	g.IsActive = false
	g.UpdatedAt = now
	return nil
}

// Member is one user's membership in a group.
type Member struct {
	GroupID     id.GroupID             `json:"group_id"`
	UserID      id.UserID              `json:"user_id"`
	Role        permission.Role        `json:"role"`
	Permissions permission.Permissions `json:"permissions"`
	JoinedAt    time.Time              `json:"joined_at"`
	InvitedBy   *id.UserID             `json:"invited_by,omitempty"`
}

func (m *Member) IsOwner() bool {
	return m.Role == permission.RoleOwner
}

// Can reports whether the member's effective permissions grant c.
func (m *Member) Can(c permission.Capability) bool {
	return m.Permissions.Allows(c)
}
