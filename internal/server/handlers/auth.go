package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"relight/internal/crypto"
	"relight/internal/server/middleware"
	"relight/internal/server/sessions"
	"relight/internal/server/storage"
	"relight/internal/validation"
	"relight/internal/workerpool"
	"relight/pkg/api"
)

// AuthHandler serves registration, login, logout and profile requests.
// Password hashing and verification are CPU-bound and always go through
// the offload pool.
type AuthHandler struct {
	logger   *slog.Logger
	users    storage.UserStorage
	sessions *sessions.Manager
	pool     *workerpool.Pool
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(logger *slog.Logger, users storage.UserStorage, manager *sessions.Manager, pool *workerpool.Pool) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		users:    users,
		sessions: manager,
		pool:     pool,
	}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validation.ValidateLogin(req.Login); err != nil {
		h.sendStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		h.sendStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := workerpool.Run(ctx, h.pool, func() (string, error) {
		return crypto.HashPassword(req.Password)
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.sendStatus(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.users.CreateUser(ctx, req.Login, hash)
	if err != nil {
		if errors.Is(err, storage.ErrLoginTaken) {
			h.logger.WarnContext(ctx, "login already taken", slog.String("login", req.Login))
			h.sendStatus(w, http.StatusBadRequest, "account already exists")
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		h.sendStatus(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		slog.String("login", user.Login),
		slog.Int64("user_id", user.ID))

	h.sendJSON(w, api.StatusResponse{Success: true}, http.StatusOK)
}

// Login handles POST /api/login. A successful login issues a session and
// sets the identity cookie. Unknown login and wrong password produce the
// same undifferentiated failure, and neither creates a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.GetUserByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.InfoContext(ctx, "login failed: unknown login", slog.String("login", req.Login))
			h.sendJSON(w, api.StatusResponse{Error: "invalid credentials"}, http.StatusOK)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendStatus(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var valid bool
	err = h.pool.Do(ctx, func() error {
		valid = crypto.VerifyPassword(req.Password, user.PasswordHash)
		return nil
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify password", slog.Any("error", err))
		h.sendStatus(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !valid {
		h.logger.InfoContext(ctx, "login failed: invalid password", slog.String("login", req.Login))
		h.sendJSON(w, api.StatusResponse{Error: "invalid credentials"}, http.StatusOK)
		return
	}

	session, identity, err := h.sessions.Issue(ctx, user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session", slog.Any("error", err))
		h.sendStatus(w, http.StatusInternalServerError, "internal server error")
		return
	}

	sessions.SetCookie(w, identity, session.ExpiresAt)

	h.logger.InfoContext(ctx, "user logged in",
		slog.String("login", user.Login),
		slog.Int64("user_id", user.ID))

	h.sendJSON(w, api.StatusResponse{Success: true}, http.StatusOK)
}

// Logout handles POST /api/logout (protected). It deletes the server-side
// session and clears the identity cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := middleware.SessionFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if err := h.sessions.Revoke(ctx, session.Token); err != nil {
		h.logger.ErrorContext(ctx, "failed to remove session", slog.Any("error", err))
		h.sendStatus(w, http.StatusInternalServerError, "internal server error")
		return
	}

	sessions.ClearCookie(w)

	h.logger.InfoContext(ctx, "user logged out", slog.Int64("user_id", session.UserID))

	h.sendJSON(w, api.StatusResponse{Success: true}, http.StatusOK)
}

// Me handles GET /api/me (protected)
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := middleware.SessionFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	user, err := h.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get session owner", slog.Any("error", err))
		h.sendStatus(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.sendJSON(w, api.MeResponse{Login: user.Login}, http.StatusOK)
}

// sendJSON writes a JSON response
func (h *AuthHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendStatus writes a StatusResponse failure body with the given code
func (h *AuthHandler) sendStatus(w http.ResponseWriter, statusCode int, message string) {
	h.sendJSON(w, api.StatusResponse{Error: message}, statusCode)
}
