package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/inventar/internal/db"
)

const signingSecretKey = "token_signing_secret"

// GetSigningSecret returns the token signing secret stored in the database,
// generating and storing one on first use. It is used when no secret key is
// configured, so tokens stay valid across restarts.
func GetSigningSecret(ctx context.Context, database db.Querier) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating signing secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	// Insert-or-ignore then read back, so concurrent starts agree on one value.
	_, err := database.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		signingSecretKey, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing signing secret: %w", err)
	}

	var secret string
	err = database.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, signingSecretKey,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying signing secret: %w", err)
	}

	return secret, nil
}
