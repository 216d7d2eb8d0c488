package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/erazemk/inventar/internal/api"
	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/config"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/logging"
	"github.com/erazemk/inventar/internal/store"
)

func main() {
	fs := flag.NewFlagSet("inventar", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var envPath string
	fs.StringVar(&envPath, "env", ".env", "")
	fs.StringVar(&envPath, "e", ".env", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: inventar [flags]

Flags:
  -c, -config <path>      YAML config file (default: none, defaults + environment)
  -e, -env <path>         dotenv file, ignored if missing (default: .env)
  -a, -addr <host:port>   listen address, overrides the config (default: :8080)
  -l, -log <path>         log file path, overrides the config (default: stdout/stderr only)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logPath != "" {
		cfg.Logging.File = logPath
	}

	closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("fatal error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(ctx, database); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	slog.Info("database ready", "driver", database.Dialect().Name())

	secret, err := signingSecret(ctx, database, cfg.Auth.SecretKey)
	if err != nil {
		return err
	}

	password, created, err := bootstrapAdmin(ctx, database, cfg)
	if err != nil {
		return err
	}
	if created && password != cfg.Admin.Password {
		printInitResult(cfg.Admin.Username, password)
	}

	authn := &auth.Authenticator{DB: database, Secret: []byte(secret), TTL: cfg.Auth.TokenTTL}
	handler := api.NewRouter(database, authn, api.Options{
		Location:       cfg.Location(),
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		BcryptCost:     cfg.Auth.BcryptCost,
		DocsUsername:   cfg.Docs.Username,
		DocsPassword:   cfg.Docs.Password,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr, "docs", cfg.Docs.Enabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-done

	slog.Info("server stopped, closing database")
	return nil
}

// signingSecret returns the configured token key, or the key persisted in
// the database when none is configured.
func signingSecret(ctx context.Context, database *db.DB, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	slog.Warn("SECRET_KEY is not set, using the key stored in the database")
	secret, err := store.GetSigningSecret(ctx, database)
	if err != nil {
		return "", fmt.Errorf("loading signing secret: %w", err)
	}
	return secret, nil
}

// bootstrapAdmin creates the administrator account if it does not exist
// yet. Without a configured password a random one is generated; it is
// returned so it can be shown once.
func bootstrapAdmin(ctx context.Context, database *db.DB, cfg *config.Config) (string, bool, error) {
	_, err := store.GetUserByUsername(ctx, database, cfg.Admin.Username)
	if err == nil {
		return "", false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return "", false, fmt.Errorf("looking up admin user: %w", err)
	}

	password := cfg.Admin.Password
	if password == "" {
		generated, err := generatePassword(16)
		if err != nil {
			return "", false, fmt.Errorf("generating password: %w", err)
		}
		password = generated
	}

	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return "", false, fmt.Errorf("hashing password: %w", err)
	}

	created, err := store.EnsureAdmin(ctx, database, cfg.Admin.Username, hash, cfg.Admin.Name)
	if err != nil {
		return "", false, fmt.Errorf("creating admin user: %w", err)
	}
	if created {
		slog.Info("admin account created", "username", cfg.Admin.Username)
	}
	return password, created, nil
}

// printInitResult prints the generated admin credentials to stdout.
func printInitResult(username, password string) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("Set ADMIN_PASSWORD before the first start to choose your own.")
	fmt.Println()
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
