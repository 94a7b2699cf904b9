package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"familyshare/internal/audit"
	"familyshare/internal/group/models"
	"familyshare/internal/permission"
	"familyshare/internal/token"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
	"familyshare/pkg/email"
	"familyshare/pkg/platform/sentinel"
)

// InviteMember issues a single-use invitation and hands the plaintext token to the
// notifier. Only the token hash is stored. Notifier failures are logged and do not fail
// the invitation.
func (s *Service) InviteMember(ctx context.Context, groupID id.GroupID, inviterID id.UserID, address string, role permission.Role, override *permission.Override) (_ *models.IssuedInvitation, err error) {
	ctx, finish := s.startSpan(ctx, "InviteMember",
		attribute.String("group_id", groupID.String()),
		attribute.String("role", string(role)))
	defer func() { finish(err) }()

	if _, err := s.requireCapability(ctx, groupID, inviterID, permission.InviteMembers); err != nil {
		return nil, err
	}
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, dErrors.New(dErrors.CodeConflict, "group is inactive")
	}
	normalized, err := email.Normalize(address)
	if err != nil {
		return nil, err
	}
	if role == permission.RoleOwner {
		return nil, dErrors.New(dErrors.CodeOwnerProtected, "the owner role cannot be granted by invitation")
	}
	perms, err := permission.Effective(role, override)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.tokens.RandomToken(InvitationTokenBytes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate invitation token")
	}
	now := s.now(ctx)
	inv := &models.Invitation{
		ID:          id.NewInvitationID(),
		GroupID:     groupID,
		Email:       normalized,
		TokenHash:   token.Hash(plaintext),
		Role:        role,
		Permissions: perms,
		InvitedBy:   inviterID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(InvitationTTL),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store invitation")
	}

	s.logAudit(ctx, audit.Record{
		GroupID:      groupID,
		UserID:       inviterID,
		Action:       audit.ActionMemberInvited,
		ResourceType: audit.ResourceInvitation,
		ResourceID:   inv.ID.String(),
		NewValues:    map[string]any{"email": normalized, "role": string(role)},
	})
	s.metrics.IncInvitationsIssued()

	if s.notifier != nil {
		if err := s.notifier.SendInvitation(ctx, normalized, plaintext, group.Name); err != nil {
			s.metrics.IncNotifierFailures()
			s.logger.ErrorContext(ctx, "failed to send invitation",
				"error", err,
				"group_id", groupID,
				"invitation_id", inv.ID,
			)
		}
	}
	return &models.IssuedInvitation{Invitation: inv, Token: plaintext}, nil
}

// AcceptInvitation redeems a token for the accepting user. Checks run in a fixed order:
// unknown token, expiry, prior acceptance, existing membership. The membership insert and
// the conditional acceptance update share one transaction, so concurrent redemptions of
// one token produce exactly one member.
func (s *Service) AcceptInvitation(ctx context.Context, plaintext string, userID id.UserID) (_ *models.Member, err error) {
	ctx, finish := s.startSpan(ctx, "AcceptInvitation")
	defer func() {
		if err != nil {
			s.metrics.IncRedemptionFailure(string(dErrors.CodeOf(err)))
		}
		finish(err)
	}()

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "accepting user is required")
	}
	if s.limiter != nil {
		allowed, limitErr := s.limiter.Allow(ctx, userID.String())
		if limitErr != nil {
			s.logger.WarnContext(ctx, "redemption limiter unavailable", "error", limitErr)
		} else if !allowed {
			return nil, dErrors.New(dErrors.CodeTooManyRequests, "too many invitation attempts, try again later")
		}
	}

	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invitation token is invalid")
	}
	tokenHash := token.Hash(plaintext)

	inv, err := s.findRedeemable(ctx, tokenHash, userID)
	if err != nil {
		return nil, err
	}

	now := s.now(ctx)
	member := &models.Member{
		GroupID:     inv.GroupID,
		UserID:      userID,
		Role:        inv.Role,
		Permissions: inv.Permissions,
		JoinedAt:    now,
		InvitedBy:   &inv.InvitedBy,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.findRedeemable(ctx, tokenHash, userID); err != nil {
			return err
		}
		if err := s.invitations.MarkAccepted(ctx, inv.ID, userID, now); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeAlreadyAccepted, "invitation has already been accepted")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to accept invitation")
		}
		if err := s.members.Create(ctx, member); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeAlreadyMember, "already a member of this group")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create membership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Record{
		GroupID:      inv.GroupID,
		UserID:       userID,
		Action:       audit.ActionInvitationAccepted,
		ResourceType: audit.ResourceInvitation,
		ResourceID:   inv.ID.String(),
		NewValues:    map[string]any{"role": string(inv.Role)},
	})
	s.metrics.IncInvitationsAccepted()
	return member, nil
}

// findRedeemable loads the invitation for tokenHash and applies the ordered redemption
// checks for userID. A deactivated group accepts no new members.
func (s *Service) findRedeemable(ctx context.Context, tokenHash string, userID id.UserID) (*models.Invitation, error) {
	inv, err := s.invitations.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidToken, "invitation token is invalid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load invitation")
	}
	if err := inv.CheckRedeemable(s.now(ctx)); err != nil {
		return nil, err
	}
	group, err := s.loadGroup(ctx, inv.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, dErrors.New(dErrors.CodeConflict, "group is no longer active")
	}
	_, err = s.members.Find(ctx, inv.GroupID, userID)
	switch {
	case err == nil:
		return nil, dErrors.New(dErrors.CodeAlreadyMember, "already a member of this group")
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}
	return inv, nil
}

// ListPendingInvitations returns unaccepted, unexpired invitations to members who may
// invite. A deactivated group has none that can still be redeemed.
func (s *Service) ListPendingInvitations(ctx context.Context, groupID id.GroupID, requesterID id.UserID) (_ []*models.Invitation, err error) {
	ctx, finish := s.startSpan(ctx, "ListPendingInvitations", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	if _, err := s.requireCapability(ctx, groupID, requesterID, permission.InviteMembers); err != nil {
		return nil, err
	}
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return []*models.Invitation{}, nil
	}
	pending, err := s.invitations.ListPendingByGroup(ctx, groupID, s.now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list invitations")
	}
	return pending, nil
}
