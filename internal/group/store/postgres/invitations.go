package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"familyshare/internal/group/models"
	"familyshare/internal/permission"
	id "familyshare/pkg/domain"
	"familyshare/pkg/platform/sentinel"
	"familyshare/pkg/platform/tx"
)

type InvitationStore struct {
	db *sql.DB
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func (s *InvitationStore) Create(ctx context.Context, inv *models.Invitation) error {
	perms, err := marshalPermissions(inv.Permissions)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO group_invitations (id, group_id, email, token_hash, role, permissions, invited_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(inv.ID),
		uuid.UUID(inv.GroupID),
		inv.Email,
		inv.TokenHash,
		string(inv.Role),
		perms,
		uuid.UUID(inv.InvitedBy),
		inv.CreatedAt,
		inv.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

const invitationColumns = `id, group_id, email, token_hash, role, permissions, invited_by, created_at, expires_at, accepted_at, accepted_by`

func (s *InvitationStore) FindByTokenHash(ctx context.Context, tokenHash string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM group_invitations WHERE token_hash = $1`
	inv, err := scanInvitation(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	return inv, nil
}

// MarkAccepted is the single PENDING to ACCEPTED transition. The accepted_at IS NULL
// predicate makes a second redemption update zero rows; under READ COMMITTED the losing
// statement waits on the winner's row lock and then re-evaluates the predicate.
func (s *InvitationStore) MarkAccepted(ctx context.Context, invitationID id.InvitationID, acceptedBy id.UserID, at time.Time) error {
	query := `
		UPDATE group_invitations
		SET accepted_at = $2, accepted_by = $3
		WHERE id = $1 AND accepted_at IS NULL
	`
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, uuid.UUID(invitationID), at, uuid.UUID(acceptedBy))
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *InvitationStore) ListPendingByGroup(ctx context.Context, groupID id.GroupID, now time.Time) ([]*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + `
		FROM group_invitations
		WHERE group_id = $1 AND accepted_at IS NULL AND expires_at >= $2
		ORDER BY created_at DESC`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(groupID), now)
	if err != nil {
		return nil, fmt.Errorf("query invitations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}
	return out, nil
}

func scanInvitation(row rowScanner) (*models.Invitation, error) {
	var (
		inv              models.Invitation
		invID, gID, byID uuid.UUID
		role             string
		rawPerms         []byte
		acceptedAt       sql.NullTime
		acceptedBy       uuid.NullUUID
	)
	if err := row.Scan(&invID, &gID, &inv.Email, &inv.TokenHash, &role, &rawPerms, &byID,
		&inv.CreatedAt, &inv.ExpiresAt, &acceptedAt, &acceptedBy); err != nil {
		return nil, err
	}
	perms, err := unmarshalPermissions(rawPerms)
	if err != nil {
		return nil, err
	}
	inv.ID = id.InvitationID(invID)
	inv.GroupID = id.GroupID(gID)
	inv.InvitedBy = id.UserID(byID)
	inv.Role = permission.Role(role)
	inv.Permissions = perms
	if acceptedAt.Valid {
		at := acceptedAt.Time
		inv.AcceptedAt = &at
	}
	if acceptedBy.Valid {
		by := id.UserID(acceptedBy.UUID)
		inv.AcceptedBy = &by
	}
	return &inv, nil
}
