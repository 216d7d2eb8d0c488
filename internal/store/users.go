package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

const userColumns = `id, username, password_hash, display_name, is_active, is_admin, created_at`

func scanUser(s scanner) (*model.User, error) {
	u := &model.User{}
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new active user.
func CreateUser(ctx context.Context, database db.Querier, username, passwordHash, displayName string, isAdmin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := model.ValidateUsername(username); err != nil {
		return nil, err
	}

	var id int64
	err := database.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, display_name, is_active, is_admin)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		username, passwordHash, strings.TrimSpace(displayName), true, isAdmin,
	).Scan(&id)
	if database.Dialect().IsUniqueViolation(err) {
		return nil, apperr.Wrap(apperr.ErrConflict, "username_exists", err)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, database, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, database db.Querier, id int64) (*model.User, error) {
	u, err := scanUser(database.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("user_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username, active or not.
func GetUserByUsername(ctx context.Context, database db.Querier, username string) (*model.User, error) {
	u, err := scanUser(database.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if isNoRows(err) {
		return nil, apperr.NotFound("user_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all users ordered by ID.
func ListUsers(ctx context.Context, database db.Querier) ([]model.User, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetUserActive activates or deactivates a user. Tokens of a deactivated
// user stop validating on their next request.
func SetUserActive(ctx context.Context, database db.Querier, id int64, active bool) (*model.User, error) {
	res, err := database.ExecContext(ctx,
		`UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if n == 0 {
		return nil, apperr.NotFound("user_not_found")
	}
	return GetUser(ctx, database, id)
}

// EnsureAdmin creates the administrator account unless a user with that
// username already exists. It reports whether a row was inserted.
func EnsureAdmin(ctx context.Context, database db.Querier, username, passwordHash, displayName string) (bool, error) {
	if err := model.ValidateUsername(username); err != nil {
		return false, err
	}

	res, err := database.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, display_name, is_active, is_admin)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (username) DO NOTHING`,
		username, passwordHash, displayName, true, true,
	)
	if err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}
	return n == 1, nil
}
