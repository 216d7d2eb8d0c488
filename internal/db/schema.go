package db

import (
	"context"
	"fmt"
)

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(ctx context.Context, database *DB) error {
	for _, stmt := range database.dialect.Schema() {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
