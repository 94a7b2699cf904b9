package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"familyshare/internal/audit"
	"familyshare/internal/group/models"
	"familyshare/internal/permission"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
	"familyshare/pkg/platform/sentinel"
)

// CreateGroup creates an active group around a child and makes the creator its owner.
// The group and the owner membership are written in one transaction.
func (s *Service) CreateGroup(ctx context.Context, childID id.ChildID, creatorID id.UserID, name, description string) (_ *models.Group, err error) {
	ctx, finish := s.startSpan(ctx, "CreateGroup", attribute.String("child_id", childID.String()))
	defer func() { finish(err) }()

	if creatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "creator is required")
	}
	ownerPerms, err := permission.Defaults(permission.RoleOwner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "owner defaults missing")
	}

	now := s.now(ctx)
	var group *models.Group
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		created, err := s.createWithUniqueCode(ctx, childID, name, description)
		if err != nil {
			return err
		}
		owner := &models.Member{
			GroupID:     created.ID,
			UserID:      creatorID,
			Role:        permission.RoleOwner,
			Permissions: ownerPerms,
			JoinedAt:    now,
		}
		if err := s.members.Create(ctx, owner); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create owner membership")
		}
		group = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Record{
		GroupID:      group.ID,
		UserID:       creatorID,
		Action:       audit.ActionGroupCreated,
		ResourceType: audit.ResourceGroup,
		ResourceID:   group.ID.String(),
		NewValues:    map[string]any{"name": group.Name, "description": group.Description},
	})
	s.metrics.IncGroupsCreated()
	return group, nil
}

// createWithUniqueCode retries invite code generation when the store reports a collision.
func (s *Service) createWithUniqueCode(ctx context.Context, childID id.ChildID, name, description string) (*models.Group, error) {
	now := s.now(ctx)
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := s.tokens.InviteCode(InviteCodeBytes)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate invite code")
		}
		group, err := models.NewGroup(id.NewGroupID(), childID, name, description, code, now)
		if err != nil {
			return nil, err
		}
		err = s.groups.Create(ctx, group)
		if err == nil {
			return group, nil
		}
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create group")
		}
		s.logger.WarnContext(ctx, "invite code collision", "attempt", attempt+1)
	}
	return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique invite code")
}

// GetGroup returns a group to one of its members.
func (s *Service) GetGroup(ctx context.Context, groupID id.GroupID, requesterID id.UserID) (_ *models.Group, err error) {
	ctx, finish := s.startSpan(ctx, "GetGroup", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	if _, err := s.requireMember(ctx, groupID, requesterID); err != nil {
		return nil, err
	}
	return s.loadGroup(ctx, groupID)
}

// DeactivateGroup marks a group inactive. Groups are never deleted.
func (s *Service) DeactivateGroup(ctx context.Context, groupID id.GroupID, requesterID id.UserID) (_ *models.Group, err error) {
	ctx, finish := s.startSpan(ctx, "DeactivateGroup", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	if _, err := s.requireCapability(ctx, groupID, requesterID, permission.ManageGroup); err != nil {
		return nil, err
	}
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := group.Deactivate(s.now(ctx)); err != nil {
		return nil, err
	}
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate group")
	}

	s.logAudit(ctx, audit.Record{
		GroupID:      groupID,
		UserID:       requesterID,
		Action:       audit.ActionGroupDeactivated,
		ResourceType: audit.ResourceGroup,
		ResourceID:   groupID.String(),
		OldValues:    map[string]any{"is_active": true},
		NewValues:    map[string]any{"is_active": false},
	})
	return group, nil
}

// ListMembers returns the group's memberships to one of its members.
func (s *Service) ListMembers(ctx context.Context, groupID id.GroupID, requesterID id.UserID) (_ []*models.Member, err error) {
	ctx, finish := s.startSpan(ctx, "ListMembers", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	if _, err := s.requireMember(ctx, groupID, requesterID); err != nil {
		return nil, err
	}
	members, err := s.members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return members, nil
}
