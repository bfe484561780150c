// Package sqlcommon implements the Driver contract once over database/sql,
// parameterized by dialect, so the sqlite (primary) and postgres
// (optional) backends share one query layer instead of duplicating every
// CRUD method. Dialect-specific concerns (schema DDL, KB vector storage)
// stay in their own packages.
package sqlcommon

import (
	"database/sql"
	"fmt"
)

// Dialect captures the handful of places sqlite and postgres SQL diverge.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// Placeholder returns the bind-parameter marker for the nth (1-indexed)
// argument in a query, per dialect: "?" for sqlite, "$n" for postgres.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// DB is the shared driver core. Dialect-specific packages construct one
// around an already-open *sql.DB and an already-applied schema.
type DB struct {
	SQL     *sql.DB
	Dialect Dialect
}

func New(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{SQL: sqlDB, Dialect: dialect}
}

func (d *DB) Close() error {
	return d.SQL.Close()
}
