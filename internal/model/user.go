package model

import (
	"strings"
	"time"

	"github.com/erazemk/inventar/internal/apperr"
)

// User is an account that can log in to the API.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Password length limits for new users. bcrypt only accepts up to 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// ValidatePassword checks that a password meets the length requirements.
// Passwords are compared trimmed at login, so they are measured trimmed.
func ValidatePassword(password string) error {
	password = strings.TrimSpace(password)
	if len(password) < MinPasswordLength {
		return apperr.InvalidInput("password_too_short")
	}
	if len(password) > MaxPasswordLength {
		return apperr.InvalidInput("password_too_long")
	}
	return nil
}

// ValidateUsername rejects empty usernames and ones containing ':', which
// separates the fields of a bearer token.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return apperr.InvalidInput("username_required")
	}
	if strings.Contains(username, ":") {
		return apperr.InvalidInput("username_invalid")
	}
	return nil
}
