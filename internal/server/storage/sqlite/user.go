package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"relight/internal/models"
	"relight/internal/server/storage"
)

// CreateUser inserts a new account row.
// A UNIQUE violation on the login column is translated to ErrLoginTaken so
// the handler can answer "already exists" instead of a server fault.
func (s *Storage) CreateUser(ctx context.Context, login, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (login, password_hash, created_at)
		VALUES (?, ?, ?)
	`

	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, query, login, passwordHash, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.login") {
			return nil, storage.ErrLoginTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted user id: %w", err)
	}

	return &models.User{
		ID:           id,
		Login:        login,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// GetUserByLogin retrieves an account by login name
func (s *Storage) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT id, login, password_hash, created_at
		FROM users
		WHERE login = ?
	`

	user := &models.User{}

	err := s.db.QueryRowContext(ctx, query, login).Scan(
		&user.ID,
		&user.Login,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves an account by row id
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT id, login, password_hash, created_at
		FROM users
		WHERE id = ?
	`

	user := &models.User{}

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Login,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
