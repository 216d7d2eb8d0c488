package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/erazemk/inventar/internal/config"
)

// NewTestDB creates a fresh SQLite database in a temporary directory with
// the schema applied. A file is used rather than :memory: so every pooled
// connection sees the same data.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := config.Default().Database
	cfg.Path = filepath.Join(t.TempDir(), "test.sqlite3")

	database, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(context.Background(), database); err != nil {
		database.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { database.Close() })

	return database
}
