package models

import (
	"time"

	"familyshare/internal/permission"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
)

// InvitationStatus is derived from AcceptedAt and ExpiresAt at read time.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is a single-use offer to join a group. Only TokenHash is persisted; the
// plaintext token is handed to the caller and notifier once, at creation.
type Invitation struct {
	ID          id.InvitationID        `json:"id"`
	GroupID     id.GroupID             `json:"group_id"`
	Email       string                 `json:"email"`
	TokenHash   string                 `json:"-"`
	Role        permission.Role        `json:"role"`
	Permissions permission.Permissions `json:"permissions"`
	InvitedBy   id.UserID              `json:"invited_by"`
	CreatedAt   time.Time              `json:"created_at"`
	ExpiresAt   time.Time              `json:"expires_at"`
	AcceptedAt  *time.Time             `json:"accepted_at,omitempty"`
	AcceptedBy  *id.UserID             `json:"accepted_by,omitempty"`
}

// Status derives the lifecycle state at now.
func (i *Invitation) Status(now time.Time) InvitationStatus {
	switch {
	case i.AcceptedAt != nil:
		return InvitationAccepted
	case now.After(i.ExpiresAt):
		return InvitationExpired
	default:
		return InvitationPending
	}
}

// CheckRedeemable applies the redemption state checks in order: expiry, then prior
// acceptance. A redemption at exactly ExpiresAt is still valid.
func (i *Invitation) CheckRedeemable(now time.Time) error {
	if now.After(i.ExpiresAt) {
		return dErrors.New(dErrors.CodeInvitationExpired, "invitation has expired")
	}
	if i.AcceptedAt != nil {
		return dErrors.New(dErrors.CodeAlreadyAccepted, "invitation has already been accepted")
	}
	return nil
}

// IssuedInvitation pairs a stored invitation with its one-time plaintext token.
type IssuedInvitation struct {
	Invitation *Invitation
	Token      string
}
