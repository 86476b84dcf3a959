// Package store provides data access for users, posts, and comments,
// in the style of sqlc-generated query objects over database/sql.
package store

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is the interface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries exposes all database operations.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. Both drivers in use surface the constraint in the error text
// rather than through a shared error type.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
