package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/inventar/internal/config"
)

// foldFunc is the SQL function used for case-insensitive matching. SQLite's
// built-in LIKE only folds ASCII, so fold() lowercases the full Unicode range.
const foldFunc = "fold"

func init() {
	err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		})
	if err != nil {
		panic(fmt.Sprintf("registering sqlite %s(): %v", foldFunc, err))
	}
}

type sqliteDialect struct{}

// SQLite is the dialect of the default file-backed backend.
var SQLite Dialect = sqliteDialect{}

func (sqliteDialect) Name() string              { return config.DriverSQLite }
func (sqliteDialect) Rebind(query string) string { return query }
func (sqliteDialect) ForUpdate() string         { return "" }

func (sqliteDialect) ILike(column string) string {
	return foldFunc + "(" + column + ") LIKE " + foldFunc + `(?) ESCAPE '\'`
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func (sqliteDialect) Schema() []string { return sqliteSchema }

// sqliteDSN configures every pooled connection through pragmas. Write
// transactions take the database lock at BEGIN so two transfers never
// deadlock upgrading from a read lock.
func sqliteDSN(cfg config.DatabaseConfig) string {
	busy := cfg.BusyTimeout.Milliseconds()
	if busy <= 0 {
		busy = 5000
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)"+
		"&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		cfg.Path, busy)
}

func openSQLite(cfg config.DatabaseConfig) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", sqliteDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &DB{sql: sqlDB, dialect: SQLite}, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name  TEXT NOT NULL DEFAULT '',
    is_active     INTEGER NOT NULL DEFAULT 1,
    is_admin      INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS traffic_objects (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    address    TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS devices (
    id           INTEGER PRIMARY KEY,
    device_name  TEXT NOT NULL,
    description  TEXT,
    object_name  TEXT NOT NULL REFERENCES traffic_objects(name),
    device_count INTEGER NOT NULL CHECK (device_count >= 0),
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS devices_obj_devname_uniq
    ON devices(object_name, device_name)`,
	`CREATE INDEX IF NOT EXISTS devices_device_name_idx ON devices(device_name)`,
	`CREATE TABLE IF NOT EXISTS transfer_history (
    id           INTEGER PRIMARY KEY,
    object_from  TEXT NOT NULL,
    object_to    TEXT NOT NULL,
    devices      TEXT NOT NULL DEFAULT '[]',
    device_count INTEGER NOT NULL,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS transfer_history_from_idx ON transfer_history(object_from)`,
	`CREATE INDEX IF NOT EXISTS transfer_history_to_idx ON transfer_history(object_to)`,
	`CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
}
