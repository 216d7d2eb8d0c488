// Package db owns the connection pool and hides the differences between the
// SQLite and Postgres backends behind a Dialect.
//
// Queries throughout the repository are written with '?' placeholders; DB and
// Tx rebind them for the active dialect before handing them to database/sql.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/inventar/internal/config"
)

// Querier is satisfied by both *DB and *Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() Dialect
}

// DB is the shared connection pool. It is safe for concurrent use.
type DB struct {
	sql     *sql.DB
	dialect Dialect
	stop    func() error
}

// Open connects to the database described by cfg and verifies the
// connection. With the postgres driver and cfg.Embedded set, an embedded
// Postgres server is started first and stopped again by Close.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	var (
		database *DB
		err      error
	)
	switch cfg.Driver {
	case config.DriverSQLite, "":
		database, err = openSQLite(cfg)
	case config.DriverPostgres:
		database, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	database.sql.SetMaxOpenConns(cfg.MaxOpenConns)
	database.sql.SetMaxIdleConns(cfg.MaxIdleConns)
	database.sql.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.sql.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return database, nil
}

// Dialect returns the SQL dialect of the connected backend.
func (d *DB) Dialect() Dialect { return d.dialect }

// ExecContext executes a statement on a pooled connection.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, d.dialect.Rebind(query), args...)
}

// QueryContext runs a query on a pooled connection.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, d.dialect.Rebind(query), args...)
}

// QueryRowContext runs a query expected to return at most one row.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}

// BeginTx starts a transaction. Callers must defer Rollback.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := d.sql.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, dialect: d.dialect}, nil
}

// PingContext checks that a connection can be acquired and used.
func (d *DB) PingContext(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (d *DB) Stats() sql.DBStats {
	return d.sql.Stats()
}

// Close closes the pool and stops the embedded server, if any.
func (d *DB) Close() error {
	err := d.sql.Close()
	if d.stop != nil {
		err = errors.Join(err, d.stop())
	}
	return err
}

// Tx is a transaction bound to one connection.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *Tx) Dialect() Dialect { return t.dialect }

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// LikePattern turns user input into a substring pattern for Dialect.ILike,
// escaping the LIKE wildcards with a backslash.
func LikePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
