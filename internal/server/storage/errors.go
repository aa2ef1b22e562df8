package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that no account matches the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrLoginTaken indicates that an account with this login already exists
	ErrLoginTaken = errors.New("login already taken")

	// ErrSessionNotFound indicates that no session matches the token
	ErrSessionNotFound = errors.New("session not found")
)
