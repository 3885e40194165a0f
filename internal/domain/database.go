package domain

import "time"

// Database is a registered execution target that queries can be dispatched
// against. The connection provider resolves DatabaseID references through
// this record.
type Database struct {
	ID        string
	Name      string
	Driver    string // "sqlite3" or "duckdb"
	DSN       string
	AllowCTAS bool
	CreatedAt time.Time
}

// SupportedDrivers lists the database/sql driver names a Database may use.
var SupportedDrivers = []string{"sqlite3", "duckdb"}

// Validate checks the registration fields.
func (d *Database) Validate() error {
	if d.Name == "" {
		return ErrValidation("database name is required")
	}
	supported := false
	for _, drv := range SupportedDrivers {
		if d.Driver == drv {
			supported = true
			break
		}
	}
	if !supported {
		return ErrValidation("driver %q is not supported", d.Driver)
	}
	return nil
}
