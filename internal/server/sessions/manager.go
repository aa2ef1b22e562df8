package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"relight/internal/models"
	"relight/internal/server/storage"
)

// ErrUnauthenticated is the single outward signal for every authentication
// failure: missing cookie, bad signature, unknown token, expired session.
// The causes are logged distinctly but never disclosed to the caller.
var ErrUnauthenticated = errors.New("unauthenticated")

// Manager issues and resolves sessions. The identity token carried by the
// client is an HS256 JWT signed with the configured key whose subject is
// the opaque session token; tampering invalidates the cookie before the
// store is ever consulted.
type Manager struct {
	logger     *slog.Logger
	sessions   storage.SessionStorage
	signingKey []byte
	ttl        time.Duration
}

// NewManager creates a session manager.
// signingKey must be non-empty; an unsigned identity cookie is a refused
// configuration, not a default.
func NewManager(logger *slog.Logger, sessions storage.SessionStorage, signingKey []byte, ttl time.Duration) (*Manager, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("token signing key must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}

	return &Manager{
		logger:     logger,
		sessions:   sessions,
		signingKey: signingKey,
		ttl:        ttl,
	}, nil
}

// TTL returns the configured session validity window.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a session for the account, persists it and returns the
// session together with the signed identity token for the cookie.
func (m *Manager) Issue(ctx context.Context, userID int64) (*models.Session, string, error) {
	now := time.Now()

	session := &models.Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to persist session: %w", err)
	}

	identity, err := m.signToken(session)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign identity token: %w", err)
	}

	return session, identity, nil
}

// Authenticate resolves the request's identity cookie to a live session.
// Every failure path returns ErrUnauthenticated; storage faults are the
// only exception and surface separately so handlers can answer 500.
func (m *Manager) Authenticate(ctx context.Context, r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		m.logger.DebugContext(ctx, "no identity cookie on request")
		return nil, ErrUnauthenticated
	}

	token, err := m.verifyToken(cookie.Value)
	if err != nil {
		m.logger.InfoContext(ctx, "invalid identity token", slog.Any("error", err))
		return nil, ErrUnauthenticated
	}

	session, err := m.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			m.logger.InfoContext(ctx, "no session for identity token")
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if !session.Valid(time.Now()) {
		// Logged distinctly from "no session" for observability; the
		// outward signal stays identical.
		m.logger.InfoContext(ctx, "session expired",
			slog.Int64("user_id", session.UserID),
			slog.Time("expired_at", session.ExpiresAt))
		return nil, ErrUnauthenticated
	}

	return session, nil
}

// Revoke deletes the server-side session. Revoking an absent session is
// not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// identityClaims binds the opaque session token into the signed cookie.
type identityClaims struct {
	SessionToken string `json:"session_token"`
	jwt.RegisteredClaims
}

func (m *Manager) signToken(session *models.Session) (string, error) {
	claims := identityClaims{
		SessionToken: session.Token,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			Issuer:    "relight",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (m *Manager) verifyToken(identity string) (string, error) {
	token, err := jwt.ParseWithClaims(identity, &identityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse identity token: %w", err)
	}

	claims, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid || claims.SessionToken == "" {
		return "", fmt.Errorf("invalid identity token")
	}

	return claims.SessionToken, nil
}
