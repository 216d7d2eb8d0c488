package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration. Values are loaded in this order, each
// step overriding the previous one: defaults, YAML file, .env file, process
// environment.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	Docs     DocsConfig     `yaml:"docs"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	Timezone          string        `yaml:"timezone"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins       []string      `yaml:"cors_origins"`
}

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig contains storage settings. Path is used by the sqlite
// driver; Host through SSLMode by the postgres driver.
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"`
	Path             string        `yaml:"path"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	Name             string        `yaml:"name"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	SSLMode          string        `yaml:"sslmode"`
	Embedded         bool          `yaml:"embedded"`
	EmbeddedDataPath string        `yaml:"embedded_data_path"`
	MaxOpenConns     int           `yaml:"max_open_conns"`
	MaxIdleConns     int           `yaml:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
	BusyTimeout      time.Duration `yaml:"busy_timeout"`
}

// AuthConfig contains bearer token settings. A zero TokenTTL disables expiry.
type AuthConfig struct {
	SecretKey  string        `yaml:"secret_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// AdminConfig describes the administrator account seeded at bootstrap.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DocsConfig holds the HTTP Basic credentials guarding /docs. Docs are
// disabled when either field is empty.
type DocsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Enabled reports whether the documentation endpoints should be served.
func (d DocsConfig) Enabled() bool {
	return d.Username != "" && d.Password != ""
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			Timezone:          "Asia/Tashkent",
			RequestTimeout:    15 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			CORSOrigins:       []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:           DriverSQLite,
			Path:             "inventar.sqlite3",
			Host:             "localhost",
			Port:             5432,
			Name:             "inventar",
			User:             "postgres",
			SSLMode:          "disable",
			EmbeddedDataPath: "./pg_data",
			MaxOpenConns:     10,
			MaxIdleConns:     1,
			ConnMaxLifetime:  30 * time.Minute,
			BusyTimeout:      5 * time.Second,
		},
		Auth: AuthConfig{
			BcryptCost: 10,
		},
		Admin: AdminConfig{
			Username: "admin",
			Name:     "Administrator",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. configPath may be empty (no YAML file).
// envPath names a dotenv file; a missing dotenv file is not an error.
func Load(configPath, envPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if envPath != "" {
		// godotenv.Load never overrides variables already set in the process.
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides copies environment variables into cfg. The unprefixed
// names (SECRET_KEY, PGHOST, ...) match the deployment's existing .env files.
func applyEnvOverrides(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	var errs []error
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid int for %s: %q", key, v))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid duration for %s: %q", key, v))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid bool for %s: %q", key, v))
				return
			}
			*dst = b
		}
	}

	str("INVENTAR_ADDR", &cfg.Server.Addr)
	str("INVENTAR_TIMEZONE", &cfg.Server.Timezone)
	dur("INVENTAR_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	if v := os.Getenv("INVENTAR_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	str("INVENTAR_DB_DRIVER", &cfg.Database.Driver)
	str("INVENTAR_DB_PATH", &cfg.Database.Path)
	str("PGHOST", &cfg.Database.Host)
	num("PGPORT", &cfg.Database.Port)
	str("PGDATABASE", &cfg.Database.Name)
	str("PGUSER", &cfg.Database.User)
	str("PGPASSWORD", &cfg.Database.Password)
	str("PGSSLMODE", &cfg.Database.SSLMode)
	flag("INVENTAR_DB_EMBEDDED", &cfg.Database.Embedded)
	num("INVENTAR_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	num("INVENTAR_DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)

	str("SECRET_KEY", &cfg.Auth.SecretKey)
	dur("INVENTAR_TOKEN_TTL", &cfg.Auth.TokenTTL)

	str("ADMIN_USERNAME", &cfg.Admin.Username)
	str("ADMIN_PASSWORD", &cfg.Admin.Password)
	str("ADMIN_NAME", &cfg.Admin.Name)

	str("DOCS_USERNAME", &cfg.Docs.Username)
	str("DOCS_PASSWORD", &cfg.Docs.Password)

	str("INVENTAR_LOG_LEVEL", &cfg.Logging.Level)
	str("INVENTAR_LOG_FORMAT", &cfg.Logging.Format)
	str("INVENTAR_LOG_FILE", &cfg.Logging.File)

	return errors.Join(errs...)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("server.timezone %q is not a known location", c.Server.Timezone))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.Name == "" || c.Database.User == "" {
			errs = append(errs, "database.name and database.user are required for postgres")
		}
		if !c.Database.Embedded && c.Database.Host == "" {
			errs = append(errs, "database.host is required for postgres")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, "database.port must be between 1 and 65535")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be %q or %q", DriverSQLite, DriverPostgres))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, "database.max_open_conns must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "database.max_idle_conns must be between 0 and max_open_conns")
	}

	if c.Auth.TokenTTL < 0 {
		errs = append(errs, "auth.token_ttl must not be negative")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, "auth.bcrypt_cost must be between 4 and 31")
	}

	if strings.TrimSpace(c.Admin.Username) == "" {
		errs = append(errs, "admin.username is required")
	}
	if strings.Contains(c.Admin.Username, ":") {
		errs = append(errs, "admin.username must not contain ':'")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Location returns the time zone used for response timestamps.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
