// ABOUTME: Administrator accounts for the development backend
// ABOUTME: Passwords are stored as bcrypt hashes

package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CreateAdmin stores a new administrator.
func (s *Store) CreateAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrBadCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admins (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, string(hash), s.timestamp())
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("admin %q: %w", username, ErrDuplicate)
		}
		return fmt.Errorf("inserting admin: %w", err)
	}
	s.logger.Info("admin created", "username", username)
	return nil
}

// EnsureAdmin creates the administrator unless one with that name exists.
func (s *Store) EnsureAdmin(ctx context.Context, username, password string) error {
	err := s.CreateAdmin(ctx, username, password)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

// Authenticate checks a username and password against active admins.
func (s *Store) Authenticate(ctx context.Context, username, password string) error {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM admins WHERE username = ? AND is_active = 1`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadCredentials
	}
	if err != nil {
		return fmt.Errorf("looking up admin: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}
