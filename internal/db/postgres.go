package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/erazemk/inventar/internal/config"
)

const pgUniqueViolation = "23505"

type postgresDialect struct{}

// Postgres is the dialect of the Postgres backend (external or embedded).
var Postgres Dialect = postgresDialect{}

func (postgresDialect) Name() string              { return config.DriverPostgres }
func (postgresDialect) Rebind(query string) string { return rebindDollar(query) }
func (postgresDialect) ForUpdate() string         { return " FOR UPDATE" }

func (postgresDialect) ILike(column string) string {
	return column + ` ILIKE ? ESCAPE '\'`
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (postgresDialect) Schema() []string { return postgresSchema }

// postgresDSN builds a pgx connection URL from cfg.
func postgresDSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func openPostgres(cfg config.DatabaseConfig) (*DB, error) {
	var stop func() error

	if cfg.Embedded {
		if cfg.Password == "" {
			cfg.Password = "postgres"
		}
		embedded := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			DataPath(cfg.EmbeddedDataPath).
			Port(uint32(cfg.Port)).
			Database(cfg.Name).
			Username(cfg.User).
			Password(cfg.Password))

		slog.Info("starting embedded postgres", "port", cfg.Port, "data", cfg.EmbeddedDataPath)
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("starting embedded postgres: %w", err)
		}
		cfg.Host = "localhost"
		cfg.SSLMode = "disable"
		stop = embedded.Stop
	}

	sqlDB, err := sql.Open("pgx", postgresDSN(cfg))
	if err != nil {
		if stop != nil {
			stop()
		}
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &DB{sql: sqlDB, dialect: Postgres, stop: stop}, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name  TEXT NOT NULL DEFAULT '',
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS traffic_objects (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    address    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS devices (
    id           BIGSERIAL PRIMARY KEY,
    device_name  TEXT NOT NULL,
    description  TEXT,
    object_name  TEXT NOT NULL REFERENCES traffic_objects(name),
    device_count INTEGER NOT NULL CHECK (device_count >= 0),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS devices_obj_devname_uniq
    ON devices(object_name, device_name)`,
	`CREATE INDEX IF NOT EXISTS devices_device_name_idx ON devices(device_name)`,
	`CREATE TABLE IF NOT EXISTS transfer_history (
    id           BIGSERIAL PRIMARY KEY,
    object_from  TEXT NOT NULL,
    object_to    TEXT NOT NULL,
    devices      TEXT NOT NULL DEFAULT '[]',
    device_count INTEGER NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS transfer_history_from_idx ON transfer_history(object_from)`,
	`CREATE INDEX IF NOT EXISTS transfer_history_to_idx ON transfer_history(object_to)`,
	`CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
}
