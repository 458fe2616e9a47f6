package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserService handles database operations for users.
type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Create inserts a new user. The password must already be hashed by the
// caller. Returns ErrConflict if the email is taken.
func (s *UserService) Create(name, email, passwordHash string) (*User, error) {
	var existing string
	err := s.db.QueryRow("SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	if err == nil {
		return nil, fmt.Errorf("user with email %q: %w", email, ErrConflict)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user := &User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: passwordHash,
		Date:     time.Now().UTC(),
	}

	_, err = s.db.Exec(
		"INSERT INTO users (id, name, email, password, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.Password, user.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// GetByEmail looks a user up by email. Returns ErrNotFound if absent.
func (s *UserService) GetByEmail(email string) (*User, error) {
	return s.getOne("SELECT id, name, email, password, reset_token_hash, reset_expires, created_at FROM users WHERE email = ?", email)
}

// GetByID looks a user up by id. Returns ErrNotFound if absent.
func (s *UserService) GetByID(id string) (*User, error) {
	return s.getOne("SELECT id, name, email, password, reset_token_hash, reset_expires, created_at FROM users WHERE id = ?", id)
}

// GetByResetToken finds the user holding the given reset token hash with
// an expiry still in the future. Returns ErrNotFound if no such user
// exists, which covers both unknown and expired tokens.
func (s *UserService) GetByResetToken(tokenHash string, now time.Time) (*User, error) {
	return s.getOne(
		"SELECT id, name, email, password, reset_token_hash, reset_expires, created_at FROM users WHERE reset_token_hash = ? AND reset_expires > ?",
		tokenHash, now,
	)
}

// SetResetToken stores the hash of a password reset token and its expiry.
func (s *UserService) SetResetToken(userID, tokenHash string, expires time.Time) error {
	res, err := s.db.Exec(
		"UPDATE users SET reset_token_hash = ?, reset_expires = ? WHERE id = ?",
		tokenHash, expires, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return requireRow(res)
}

// ResetPassword replaces the stored password hash and clears any pending
// reset token.
func (s *UserService) ResetPassword(userID, passwordHash string) error {
	res, err := s.db.Exec(
		"UPDATE users SET password = ?, reset_token_hash = NULL, reset_expires = NULL WHERE id = ?",
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return requireRow(res)
}

func (s *UserService) getOne(query string, args ...any) (*User, error) {
	var (
		user      User
		resetHash sql.NullString
		resetExp  sql.NullTime
	)
	err := s.db.QueryRow(query, args...).Scan(
		&user.ID, &user.Name, &user.Email, &user.Password, &resetHash, &resetExp, &user.Date,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user.ResetTokenHash = resetHash.String
	if resetExp.Valid {
		t := resetExp.Time
		user.ResetExpires = &t
	}
	return &user, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
