package repository

import (
	"context"
	"database/sql"
	"time"

	"sqldesk/internal/domain"
)

var _ domain.DatabaseRepository = (*DatabaseRepo)(nil)

// DatabaseRepo stores registered target databases in SQLite.
type DatabaseRepo struct {
	db *sql.DB
}

// NewDatabaseRepo creates a new DatabaseRepo.
func NewDatabaseRepo(db *sql.DB) *DatabaseRepo {
	return &DatabaseRepo{db: db}
}

// Create registers a new target database.
func (r *DatabaseRepo) Create(ctx context.Context, d *domain.Database) (*domain.Database, error) {
	if d == nil {
		return nil, domain.ErrValidation("database is required")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.ID == "" {
		d.ID = domain.NewID()
	}

	allowCTAS := 0
	if d.AllowCTAS {
		allowCTAS = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO databases (id, name, driver, dsn, allow_ctas)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.Name, d.Driver, d.DSN, allowCTAS)
	if err != nil {
		return nil, mapDBError(err)
	}

	return r.GetByID(ctx, d.ID)
}

// GetByID returns a registered database by ID.
func (r *DatabaseRepo) GetByID(ctx context.Context, id string) (*domain.Database, error) {
	var (
		d         domain.Database
		allowCTAS int
		createdAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, driver, dsn, allow_ctas, created_at FROM databases WHERE id = ?
	`, id).Scan(&d.ID, &d.Name, &d.Driver, &d.DSN, &allowCTAS, &createdAt)
	if err != nil {
		mapped := mapDBError(err)
		if _, ok := mapped.(*domain.NotFoundError); ok {
			return nil, domain.ErrNotFound("database %q not found", id)
		}
		return nil, mapped
	}
	d.AllowCTAS = allowCTAS != 0
	d.CreatedAt = createdAt
	return &d, nil
}

// List returns all registered databases.
func (r *DatabaseRepo) List(ctx context.Context) ([]domain.Database, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, driver, dsn, allow_ctas, created_at FROM databases ORDER BY name
	`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Database
	for rows.Next() {
		var (
			d         domain.Database
			allowCTAS int
			createdAt time.Time
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Driver, &d.DSN, &allowCTAS, &createdAt); err != nil {
			return nil, mapDBError(err)
		}
		d.AllowCTAS = allowCTAS != 0
		d.CreatedAt = createdAt
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}
