package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relight/internal/crypto"
	"relight/internal/models"
	"relight/internal/server/sessions"
	"relight/internal/server/storage"
	"relight/internal/workerpool"
	"relight/pkg/api"
)

// mockUserStorage is an in-memory UserStorage for testing
type mockUserStorage struct {
	users     map[string]*models.User // login -> User
	createErr error
	getErr    error
	nextID    int64
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, login, passwordHash string) (*models.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, exists := m.users[login]; exists {
		return nil, storage.ErrLoginTaken
	}
	m.nextID++
	user := &models.User{
		ID:           m.nextID,
		Login:        login,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[login] = user
	return user, nil
}

func (m *mockUserStorage) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.users[login]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// mockSessionStorage is an in-memory SessionStorage for testing
type mockSessionStorage struct {
	sessions map[string]*models.Session
}

func newMockSessionStorage() *mockSessionStorage {
	return &mockSessionStorage{sessions: make(map[string]*models.Session)}
}

func (m *mockSessionStorage) CreateSession(ctx context.Context, session *models.Session) error {
	m.sessions[session.Token] = session
	return nil
}

func (m *mockSessionStorage) GetSession(ctx context.Context, token string) (*models.Session, error) {
	session, ok := m.sessions[token]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	return session, nil
}

func (m *mockSessionStorage) DeleteSession(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *mockSessionStorage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type authFixture struct {
	handler      *AuthHandler
	users        *mockUserStorage
	sessionStore *mockSessionStorage
	manager      *sessions.Manager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	users := newMockUserStorage()
	sessionStore := newMockSessionStorage()

	manager, err := sessions.NewManager(logger, sessionStore, []byte("test-key"), 48*time.Hour)
	require.NoError(t, err)

	pool := workerpool.New(2)
	t.Cleanup(pool.Stop)

	return &authFixture{
		handler:      NewAuthHandler(logger, users, manager, pool),
		users:        users,
		sessionStore: sessionStore,
		manager:      manager,
	}
}

func credentialsBody(t *testing.T, login, password string) *bytes.Reader {
	t.Helper()

	data, err := json.Marshal(api.CredentialsRequest{Login: login, Password: password})
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) api.StatusResponse {
	t.Helper()

	var resp api.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	f := newAuthFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", credentialsBody(t, "alice", "password-one")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeStatus(t, rec).Success)

	// The stored hash verifies the original password and is not plaintext
	user := f.users.users["alice"]
	require.NotNil(t, user)
	assert.NotEqual(t, "password-one", user.PasswordHash)
	assert.True(t, crypto.VerifyPassword("password-one", user.PasswordHash))
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", credentialsBody(t, "alice", "password-one")))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", credentialsBody(t, "alice", "password-two")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeStatus(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "already exists")

	// No second account row
	assert.Len(t, f.users.users, 1)
}

func TestAuthHandler_Register_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
	}{
		{name: "login too short", login: "al", password: "password-one"},
		{name: "login bad characters", login: "al ice", password: "password-one"},
		{name: "password too short", login: "alice", password: "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)

			rec := httptest.NewRecorder()
			f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", credentialsBody(t, tt.login, tt.password)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, f.users.users)
		})
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	f := newAuthFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader([]byte("{not json"))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	f := newAuthFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", credentialsBody(t, "alice", "password-one")))
	require.Equal(t, http.StatusOK, rec.Code)

	before := time.Now()
	rec = httptest.NewRecorder()
	f.handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", credentialsBody(t, "alice", "password-one")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeStatus(t, rec).Success)

	// Identity cookie was set
	var identity *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessions.CookieName {
			identity = c
		}
	}
	require.NotNil(t, identity)
	assert.NotEmpty(t, identity.Value)
	assert.True(t, identity.HttpOnly)

	// Exactly one session, expiring now + 48h within clock tolerance
	require.Len(t, f.sessionStore.sessions, 1)
	for _, session := range f.sessionStore.sessions {
		assert.WithinDuration(t, before.Add(48*time.Hour), session.ExpiresAt, 2*time.Second)
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", credentialsBody(t, "alice", "password-one")))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", credentialsBody(t, "alice", "password-two")))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeStatus(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid credentials", resp.Error)

	// Failed login creates no session and sets no cookie
	assert.Empty(t, f.sessionStore.sessions)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandler_Login_UnknownLogin(t *testing.T) {
	f := newAuthFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", credentialsBody(t, "nobody", "password-one")))

	// Same outward signal as a wrong password
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeStatus(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid credentials", resp.Error)
}

func TestAuthHandler_Login_StorageFault(t *testing.T) {
	f := newAuthFixture(t)
	f.users.getErr = assert.AnError

	rec := httptest.NewRecorder()
	f.handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", credentialsBody(t, "alice", "password-one")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Generic message only, no internal detail
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
