// Package postgres implements store.UserStore on PostgreSQL with bcrypt
// password hashes.
package postgres

import (
	"context"
	"errors"

	"oneonone/agenda-service/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Verify(ctx context.Context, username, password string) error {
	var passwordHash string
	row := s.pool.QueryRow(ctx, `
		SELECT password_hash
		FROM agenda_users
		WHERE username = $1 AND active = TRUE
	`, username)
	if err := row.Scan(&passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return store.ErrInvalidCredentials
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM agenda_users WHERE username = $1 AND active = TRUE
		)
	`, username)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// PutUser inserts or replaces a user with a freshly hashed password.
func (s *Store) PutUser(ctx context.Context, username, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO agenda_users (username, password_hash, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, active = TRUE
	`, username, hash)
	return err
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
