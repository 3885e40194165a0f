package repository

import (
	"context"
	"database/sql"

	"sqldesk/internal/domain"
)

// GrantRepo stores query privileges in SQLite. A grant with an empty schema
// name covers every schema of its database.
type GrantRepo struct {
	db *sql.DB
}

// NewGrantRepo creates a new GrantRepo.
func NewGrantRepo(db *sql.DB) *GrantRepo {
	return &GrantRepo{db: db}
}

// Grant records a QUERY privilege for principal on database/schema.
func (r *GrantRepo) Grant(ctx context.Context, principal, databaseID, schemaName string) error {
	if principal == "" || databaseID == "" {
		return domain.ErrValidation("principal and database_id are required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grants (id, principal_name, database_id, schema_name, privilege)
		VALUES (?, ?, ?, ?, 'QUERY')
	`, domain.NewID(), principal, databaseID, schemaName)
	return mapDBError(err)
}

// Revoke removes a previously recorded privilege.
func (r *GrantRepo) Revoke(ctx context.Context, principal, databaseID, schemaName string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM grants
		WHERE principal_name = ? AND database_id = ? AND schema_name = ? AND privilege = 'QUERY'
	`, principal, databaseID, schemaName)
	if err != nil {
		return mapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound("no matching grant for %q on database %q", principal, databaseID)
	}
	return nil
}

// HasQueryGrant reports whether principal holds the QUERY privilege on
// database/schema, either schema-scoped or database-wide.
func (r *GrantRepo) HasQueryGrant(ctx context.Context, principal, databaseID, schemaName string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM grants
		WHERE principal_name = ? AND database_id = ? AND privilege = 'QUERY'
		  AND (schema_name = '' OR schema_name = ?)
	`, principal, databaseID, schemaName).Scan(&n)
	if err != nil {
		return false, mapDBError(err)
	}
	return n > 0, nil
}
