package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"familyshare/internal/audit"
	"familyshare/internal/permission"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
)

// ListGroupAudit returns the group's audit trail, newest first, to members who manage
// the group.
func (s *Service) ListGroupAudit(ctx context.Context, groupID id.GroupID, requesterID id.UserID, limit int) (_ []audit.Entry, err error) {
	ctx, finish := s.startSpan(ctx, "ListGroupAudit", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	if _, err := s.requireCapability(ctx, groupID, requesterID, permission.ManageGroup); err != nil {
		return nil, err
	}
	if s.auditLogger == nil {
		return []audit.Entry{}, nil
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	entries, err := s.auditLogger.ListByGroup(ctx, groupID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail")
	}
	return entries, nil
}
