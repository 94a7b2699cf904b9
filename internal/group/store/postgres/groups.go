package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"familyshare/internal/group/models"
	id "familyshare/pkg/domain"
	"familyshare/pkg/platform/sentinel"
	"familyshare/pkg/platform/tx"
)

type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

// Create inserts a group. A taken invite code reports sentinel.ErrAlreadyUsed without
// raising a SQL error, so the surrounding transaction stays usable for a retry.
func (s *GroupStore) Create(ctx context.Context, group *models.Group) error {
	query := `
		INSERT INTO family_groups (id, child_id, name, description, invite_code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (invite_code) DO NOTHING
	`
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(group.ID),
		uuid.UUID(group.ChildID),
		group.Name,
		group.Description,
		group.InviteCode,
		group.IsActive,
		group.CreatedAt,
		group.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert group: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *GroupStore) FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	query := `
		SELECT id, child_id, name, description, invite_code, is_active, created_at, updated_at
		FROM family_groups
		WHERE id = $1
	`
	var (
		g            models.Group
		gID, childID uuid.UUID
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(groupID)).Scan(
		&gID, &childID, &g.Name, &g.Description, &g.InviteCode, &g.IsActive, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	g.ID = id.GroupID(gID)
	g.ChildID = id.ChildID(childID)
	return &g, nil
}

func (s *GroupStore) Update(ctx context.Context, group *models.Group) error {
	query := `
		UPDATE family_groups
		SET name = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(group.ID), group.Name, group.Description, group.IsActive, group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return requireRow(res, "update group")
}

func requireRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
