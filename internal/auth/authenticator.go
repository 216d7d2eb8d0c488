package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// Authenticator logs users in and validates their tokens against the
// credential store.
type Authenticator struct {
	DB     db.Querier
	Secret []byte
	// TTL bounds token age; zero means tokens never expire.
	TTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func (a *Authenticator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Login checks the credentials and returns a fresh token for the user.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	user, err := store.GetUserByUsername(ctx, a.DB, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, apperr.Unauthorized("user_not_found")
	}
	if err != nil {
		return "", nil, err
	}

	if !user.IsActive || !CheckPassword(user.PasswordHash, password) {
		return "", nil, apperr.Unauthorized("invalid_credentials")
	}

	token, err := IssueToken(a.Secret, user.Username, a.now())
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Validate returns the active user a token belongs to. The user is read
// from the store on every call, so deactivation takes effect immediately.
func (a *Authenticator) Validate(ctx context.Context, token string) (*model.User, error) {
	claims, err := ParseToken(a.Secret, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "invalid_token", err)
	}
	if err := checkExpiry(claims, a.TTL, a.now()); err != nil {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "invalid_token", err)
	}

	user, err := store.GetUserByUsername(ctx, a.DB, claims.Username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "invalid_token", err)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("invalid_token")
	}
	return user, nil
}

// HashPassword returns the bcrypt hash of password, trimmed the same way
// Login trims it.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Wrap(apperr.ErrInvalidInput, "password_too_long", err)
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
