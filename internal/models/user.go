package models

import "time"

// User represents a registered account
type User struct {
	CreatedAt    time.Time `json:"created_at"` // registration time
	Login        string    `json:"login"`      // unique login name
	PasswordHash string    `json:"-"`          // argon2id PHC string, never serialized
	ID           int64     `json:"id"`         // autoincrement row id
}

// Session represents a server-issued proof of a successful login
type Session struct {
	ExpiresAt time.Time `json:"expires_at"` // absolute expiry
	CreatedAt time.Time `json:"created_at"` // issue time
	Token     string    `json:"token"`      // opaque high-entropy token
	UserID    int64     `json:"user_id"`    // owning account
}

// Valid reports whether the session is usable at the given instant.
// A session is valid strictly before its expiry.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
