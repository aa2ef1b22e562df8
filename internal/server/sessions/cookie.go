package sessions

import (
	"net/http"
	"time"

	"relight/pkg/api"
)

// CookieName is the identity cookie issued on login.
const CookieName = api.IdentityCookie

// SetCookie issues the identity cookie to the client.
func SetCookie(w http.ResponseWriter, identity string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    identity,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the identity cookie from the client.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
