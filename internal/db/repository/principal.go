package repository

import (
	"context"
	"database/sql"
	"time"

	"sqldesk/internal/domain"
)

// Principal is a known caller of the API.
type Principal struct {
	ID        string
	Name      string
	IsAdmin   bool
	CreatedAt time.Time
}

// PrincipalRepo stores principals in SQLite.
type PrincipalRepo struct {
	db *sql.DB
}

// NewPrincipalRepo creates a new PrincipalRepo.
func NewPrincipalRepo(db *sql.DB) *PrincipalRepo {
	return &PrincipalRepo{db: db}
}

// Create inserts a new principal.
func (r *PrincipalRepo) Create(ctx context.Context, name string, isAdmin bool) (*Principal, error) {
	if name == "" {
		return nil, domain.ErrValidation("principal name is required")
	}
	id := domain.NewID()
	admin := 0
	if isAdmin {
		admin = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO principals (id, name, is_admin) VALUES (?, ?, ?)
	`, id, name, admin)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByName(ctx, name)
}

// GetByName returns a principal by name.
func (r *PrincipalRepo) GetByName(ctx context.Context, name string) (*Principal, error) {
	var (
		p         Principal
		admin     int
		createdAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, is_admin, created_at FROM principals WHERE name = ?
	`, name).Scan(&p.ID, &p.Name, &admin, &createdAt)
	if err != nil {
		mapped := mapDBError(err)
		if _, ok := mapped.(*domain.NotFoundError); ok {
			return nil, domain.ErrNotFound("principal %q not found", name)
		}
		return nil, mapped
	}
	p.IsAdmin = admin != 0
	p.CreatedAt = createdAt
	return &p, nil
}
