package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"relight/internal/models"
	"relight/internal/server/sessions"
)

type contextKey string

// sessionContextKey stores the authenticated session in the request context
const sessionContextKey contextKey = "session"

// RequireAuth gates protected routes behind a live session. It runs before
// the handler touches the request body, so an unauthenticated caller never
// gets its payload buffered or the engine invoked. Authentication failures
// answer 403 with an empty body regardless of cause.
func RequireAuth(logger *slog.Logger, manager *sessions.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := manager.Authenticate(r.Context(), r)
			if err != nil {
				if errors.Is(err, sessions.ErrUnauthenticated) {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				logger.ErrorContext(r.Context(), "session lookup failed", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session stored by RequireAuth.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*models.Session)
	return session, ok
}
