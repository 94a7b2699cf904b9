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

// HasPermission reports whether userID's effective permissions in groupID grant c.
// Non-members and store failures answer false.
func (s *Service) HasPermission(ctx context.Context, groupID id.GroupID, userID id.UserID, c permission.Capability) bool {
	member, err := s.members.Find(ctx, groupID, userID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "permission check failed",
				"error", err,
				"group_id", groupID,
				"user_id", userID,
				"capability", c,
			)
		}
		return false
	}
	return member.Can(c)
}

// GetUserRole returns the member's role. ok is false for non-members.
func (s *Service) GetUserRole(ctx context.Context, groupID id.GroupID, userID id.UserID) (permission.Role, bool, error) {
	member, err := s.members.Find(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", false, nil
		}
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return member.Role, true, nil
}

// GetMembership returns the caller's own membership.
func (s *Service) GetMembership(ctx context.Context, groupID id.GroupID, userID id.UserID) (_ *models.Member, err error) {
	ctx, finish := s.startSpan(ctx, "GetMembership", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	return s.loadMember(ctx, groupID, userID)
}

// UpdateMemberPermissions replaces a member's permission set wholesale.
func (s *Service) UpdateMemberPermissions(ctx context.Context, groupID id.GroupID, targetID, updatedByID id.UserID, perms permission.Permissions) (_ *models.Member, err error) {
	ctx, finish := s.startSpan(ctx, "UpdateMemberPermissions", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	if _, err := s.requireCapability(ctx, groupID, updatedByID, permission.ManageGroup); err != nil {
		return nil, err
	}
	target, err := s.loadMember(ctx, groupID, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsOwner() {
		return nil, dErrors.New(dErrors.CodeOwnerProtected, "the owner's permissions cannot be changed")
	}

	old := target.Permissions
	if err := s.members.UpdatePermissions(ctx, groupID, targetID, perms); err != nil {
		return nil, translateMemberWrite(err, "failed to update permissions")
	}
	target.Permissions = perms

	s.logAudit(ctx, audit.Record{
		GroupID:      groupID,
		UserID:       updatedByID,
		Action:       audit.ActionPermissionsUpdated,
		ResourceType: audit.ResourceMember,
		ResourceID:   targetID.String(),
		OldValues:    old.Snapshot(),
		NewValues:    perms.Snapshot(),
	})
	return target, nil
}

// UpdateMemberRole moves a member to another role and resets their permissions to that
// role's defaults. Ownership cannot be granted or taken this way.
func (s *Service) UpdateMemberRole(ctx context.Context, groupID id.GroupID, targetID, updatedByID id.UserID, role permission.Role) (_ *models.Member, err error) {
	ctx, finish := s.startSpan(ctx, "UpdateMemberRole",
		attribute.String("group_id", groupID.String()),
		attribute.String("role", string(role)))
	defer func() { finish(err) }()

	if _, err := s.requireCapability(ctx, groupID, updatedByID, permission.ManageGroup); err != nil {
		return nil, err
	}
	target, err := s.loadMember(ctx, groupID, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsOwner() || role == permission.RoleOwner {
		return nil, dErrors.New(dErrors.CodeOwnerProtected, "ownership cannot be changed")
	}
	perms, err := permission.Defaults(role)
	if err != nil {
		return nil, err
	}

	oldRole, oldPerms := target.Role, target.Permissions
	if err := s.members.UpdateRole(ctx, groupID, targetID, role, perms); err != nil {
		return nil, translateMemberWrite(err, "failed to update role")
	}
	target.Role, target.Permissions = role, perms

	s.logAudit(ctx, audit.Record{
		GroupID:      groupID,
		UserID:       updatedByID,
		Action:       audit.ActionRoleUpdated,
		ResourceType: audit.ResourceMember,
		ResourceID:   targetID.String(),
		OldValues:    map[string]any{"role": string(oldRole), "permissions": oldPerms.Snapshot()},
		NewValues:    map[string]any{"role": string(role), "permissions": perms.Snapshot()},
	})
	return target, nil
}

// RemoveMember deletes another member's membership. The owner can never be removed.
func (s *Service) RemoveMember(ctx context.Context, groupID id.GroupID, targetID, removedByID id.UserID) (err error) {
	ctx, finish := s.startSpan(ctx, "RemoveMember", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	remover, err := s.requireMember(ctx, groupID, removedByID)
	if err != nil {
		return err
	}
	// The owner is protected whatever the remover may do; capability is checked after.
	target, err := s.loadMember(ctx, groupID, targetID)
	if err == nil && target.IsOwner() {
		return dErrors.New(dErrors.CodeOwnerProtected, "the group owner cannot be removed")
	}
	if !remover.Can(permission.ManageGroup) {
		s.metrics.IncPermissionDenied(string(permission.ManageGroup))
		return dErrors.New(dErrors.CodePermissionDenied, "missing permission: "+string(permission.ManageGroup))
	}
	if err != nil {
		return err
	}
	if err := s.members.Delete(ctx, groupID, targetID); err != nil {
		return translateMemberWrite(err, "failed to remove member")
	}

	s.logAudit(ctx, audit.Record{
		GroupID:      groupID,
		UserID:       removedByID,
		Action:       audit.ActionMemberRemoved,
		ResourceType: audit.ResourceMember,
		ResourceID:   targetID.String(),
		OldValues:    map[string]any{"user_id": targetID.String(), "role": string(target.Role)},
		NewValues:    map[string]any{"removed_by": removedByID.String()},
	})
	return nil
}

// LeaveGroup removes the caller's own membership. The owner cannot leave.
func (s *Service) LeaveGroup(ctx context.Context, groupID id.GroupID, userID id.UserID) (err error) {
	ctx, finish := s.startSpan(ctx, "LeaveGroup", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	member, err := s.loadMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member.IsOwner() {
		return dErrors.New(dErrors.CodeOwnerProtected, "the group owner cannot leave the group")
	}
	if err := s.members.Delete(ctx, groupID, userID); err != nil {
		return translateMemberWrite(err, "failed to leave group")
	}

	s.logAudit(ctx, audit.Record{
		GroupID:      groupID,
		UserID:       userID,
		Action:       audit.ActionMemberLeft,
		ResourceType: audit.ResourceMember,
		ResourceID:   userID.String(),
		OldValues:    map[string]any{"user_id": userID.String(), "role": string(member.Role)},
		NewValues:    map[string]any{"left_at": s.now(ctx)},
	})
	return nil
}

func translateMemberWrite(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
