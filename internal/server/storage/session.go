package storage

import (
	"context"
	"time"

	"relight/internal/models"
)

// SessionStorage defines the interface for session persistence
type SessionStorage interface {
	// CreateSession inserts a new session row. The caller guarantees token
	// uniqueness through sufficient entropy; no collision check is made.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session by token.
	// Returns ErrSessionNotFound if no row matches. Expiry is NOT checked
	// here: that is the authentication gate's responsibility.
	GetSession(ctx context.Context, token string) (*models.Session, error)

	// DeleteSession removes a session if present. Deleting an absent
	// session is not an error.
	DeleteSession(ctx context.Context, token string) error

	// DeleteExpiredSessions removes every session that expired at or
	// before the given instant and reports how many rows were removed.
	// Nothing calls this on a timer; expired sessions stay in storage and
	// are rejected lazily on lookup.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
