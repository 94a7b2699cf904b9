package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"familyshare/internal/group/models"
	"familyshare/internal/permission"
	id "familyshare/pkg/domain"
	"familyshare/pkg/platform/sentinel"
	"familyshare/pkg/platform/tx"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func (s *MemberStore) Create(ctx context.Context, member *models.Member) error {
	perms, err := marshalPermissions(member.Permissions)
	if err != nil {
		return err
	}
	var invitedBy uuid.NullUUID
	if member.InvitedBy != nil {
		invitedBy = uuid.NullUUID{UUID: uuid.UUID(*member.InvitedBy), Valid: true}
	}
	query := `
		INSERT INTO group_members (group_id, user_id, role, permissions, joined_at, invited_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(member.GroupID),
		uuid.UUID(member.UserID),
		string(member.Role),
		perms,
		member.JoinedAt,
		invitedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

const memberColumns = `group_id, user_id, role, permissions, joined_at, invited_by`

func (s *MemberStore) Find(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM group_members WHERE group_id = $1 AND user_id = $2`
	m, err := scanMember(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(groupID), uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) ListByGroup(ctx context.Context, groupID id.GroupID) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM group_members WHERE group_id = $1 ORDER BY joined_at, user_id`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(groupID))
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func (s *MemberStore) UpdatePermissions(ctx context.Context, groupID id.GroupID, userID id.UserID, perms permission.Permissions) error {
	raw, err := marshalPermissions(perms)
	if err != nil {
		return err
	}
	query := `UPDATE group_members SET permissions = $3 WHERE group_id = $1 AND user_id = $2`
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, uuid.UUID(groupID), uuid.UUID(userID), raw)
	if err != nil {
		return fmt.Errorf("update member permissions: %w", err)
	}
	return requireRow(res, "update member permissions")
}

func (s *MemberStore) UpdateRole(ctx context.Context, groupID id.GroupID, userID id.UserID, role permission.Role, perms permission.Permissions) error {
	raw, err := marshalPermissions(perms)
	if err != nil {
		return err
	}
	query := `UPDATE group_members SET role = $3, permissions = $4 WHERE group_id = $1 AND user_id = $2`
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, uuid.UUID(groupID), uuid.UUID(userID), string(role), raw)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	return requireRow(res, "update member role")
}

func (s *MemberStore) Delete(ctx context.Context, groupID id.GroupID, userID id.UserID) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, uuid.UUID(groupID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return requireRow(res, "delete member")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	var (
		m         models.Member
		gID, uID  uuid.UUID
		role      string
		rawPerms  []byte
		invitedBy uuid.NullUUID
	)
	if err := row.Scan(&gID, &uID, &role, &rawPerms, &m.JoinedAt, &invitedBy); err != nil {
		return nil, err
	}
	perms, err := unmarshalPermissions(rawPerms)
	if err != nil {
		return nil, err
	}
	m.GroupID = id.GroupID(gID)
	m.UserID = id.UserID(uID)
	m.Role = permission.Role(role)
	m.Permissions = perms
	if invitedBy.Valid {
		by := id.UserID(invitedBy.UUID)
		m.InvitedBy = &by
	}
	return &m, nil
}
