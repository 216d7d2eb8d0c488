// Package store implements the inventory operations on top of a *db.DB.
//
// Functions return *apperr.Error values for domain failures (missing rows,
// conflicts, bad input) and wrap driver errors with fmt.Errorf.
package store

import (
	"database/sql"
	"errors"
)

// Pagination bounds for list operations.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// clampPage normalizes paging arguments. A zero or negative limit selects
// DefaultLimit.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ClampLimit returns the limit a list operation applies for the given value.
func ClampLimit(limit int) int {
	limit, _ = clampPage(limit, 0)
	return limit
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
