// Package postgres implements the group stores on PostgreSQL via database/sql and lib/pq.
// Every query runs on the transaction carried in ctx when there is one.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"familyshare/internal/permission"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = pq.ErrorCode("23505")

// Migrate creates the tables used by the group and audit stores. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func marshalPermissions(p permission.Permissions) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}
	return raw, nil
}

func unmarshalPermissions(raw []byte) (permission.Permissions, error) {
	var p permission.Permissions
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode permissions: %w", err)
	}
	return p, nil
}
