package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"familyshare/internal/audit"
	id "familyshare/pkg/domain"
	"familyshare/pkg/platform/tx"
)

// Store persists audit entries to the audit_logs table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	oldValues, err := marshalValues(entry.OldValues)
	if err != nil {
		return fmt.Errorf("marshal audit old values: %w", err)
	}
	newValues, err := marshalValues(entry.NewValues)
	if err != nil {
		return fmt.Errorf("marshal audit new values: %w", err)
	}

	query := `
		INSERT INTO audit_logs (
			id, group_id, user_id, action, resource_type, resource_id,
			old_values, new_values, ip_address, user_agent, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.GroupID),
		uuid.UUID(entry.UserID),
		string(entry.Action),
		nullString(string(entry.ResourceType)),
		nullString(entry.ResourceID),
		oldValues,
		newValues,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByGroup returns up to limit entries newest first; limit <= 0 returns all.
func (s *Store) ListByGroup(ctx context.Context, groupID id.GroupID, limit int) ([]audit.Entry, error) {
	query := `
		SELECT id, group_id, user_id, action, resource_type, resource_id,
			   old_values, new_values, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE group_id = $1
		ORDER BY created_at DESC
	`
	args := []any{uuid.UUID(groupID)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry                    audit.Entry
			entryID, gID, uID        uuid.UUID
			action                   string
			resourceType, resourceID sql.NullString
			oldValues, newValues     []byte
		)
		if err := rows.Scan(&entryID, &gID, &uID, &action, &resourceType, &resourceID,
			&oldValues, &newValues, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ID = id.AuditID(entryID)
		entry.GroupID = id.GroupID(gID)
		entry.UserID = id.UserID(uID)
		entry.Action = audit.Action(action)
		entry.ResourceType = audit.ResourceType(resourceType.String)
		entry.ResourceID = resourceID.String
		if entry.OldValues, err = unmarshalValues(oldValues); err != nil {
			return nil, fmt.Errorf("decode audit old values: %w", err)
		}
		if entry.NewValues, err = unmarshalValues(newValues); err != nil {
			return nil, fmt.Errorf("decode audit new values: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func marshalValues(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalValues(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
