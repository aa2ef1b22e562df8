package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relight/pkg/api"
)

func TestClient_Register(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/register", r.URL.Path)

		var req api.CredentialsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Login)

		_ = json.NewEncoder(w).Encode(api.StatusResponse{Success: true})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	resp, err := c.Register(t.Context(), "alice", "password-one")
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestClient_Login_CapturesIdentityCookie(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: api.IdentityCookie, Value: "signed-token"})
		_ = json.NewEncoder(w).Encode(api.StatusResponse{Success: true})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	resp, err := c.Login(t.Context(), "alice", "password-one")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "signed-token", c.Identity())
}

func TestClient_Login_Failure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.StatusResponse{Error: "invalid credentials"})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	resp, err := c.Login(t.Context(), "alice", "wrong")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Empty(t, c.Identity())
}

func TestClient_Process_SendsIdentity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(api.IdentityCookie)
		require.NoError(t, err)
		assert.Equal(t, "signed-token", cookie.Value)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("input")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	c.SetIdentity("signed-token")

	output, err := c.Process(t.Context(), []byte("input-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), output)
}

func TestClient_Process_Forbidden(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.Process(t.Context(), []byte("input-bytes"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestClient_Me_Forbidden(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.Me(t.Context())
	assert.ErrorIs(t, err, ErrForbidden)
}
