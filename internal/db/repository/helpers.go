// Package repository implements domain repositories over the SQLite
// metadata store.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"sqldesk/internal/domain"
)

// mapDBError translates low-level driver errors into domain errors.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}
