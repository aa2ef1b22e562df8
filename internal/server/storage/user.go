package storage

import (
	"context"

	"relight/internal/models"
)

// UserStorage defines the interface for account persistence
type UserStorage interface {
	// CreateUser inserts a new account.
	// Returns ErrLoginTaken if the login is already registered.
	CreateUser(ctx context.Context, login, passwordHash string) (*models.User, error)

	// GetUserByLogin retrieves an account by its login name.
	// Returns ErrUserNotFound if no such login exists.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)

	// GetUserByID retrieves an account by its row id.
	// Returns ErrUserNotFound if no such account exists.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}
