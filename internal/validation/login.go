package validation

import (
	"fmt"
	"regexp"
)

// LoginPattern defines the allowed login format:
// latin letters, digits and underscore, 3-32 characters.
var LoginPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinLoginLen is the minimum login length
	MinLoginLen = 3
	// MaxLoginLen is the maximum login length
	MaxLoginLen = 32
	// MinPasswordLen is the minimum password length
	MinPasswordLen = 8
)

// ValidateLogin checks that a login matches the allowed format.
func ValidateLogin(login string) error {
	if login == "" {
		return fmt.Errorf("login cannot be empty")
	}

	if len(login) < MinLoginLen {
		return fmt.Errorf("login must be at least %d characters long", MinLoginLen)
	}

	if len(login) > MaxLoginLen {
		return fmt.Errorf("login must not exceed %d characters", MaxLoginLen)
	}

	if !LoginPattern.MatchString(login) {
		return fmt.Errorf("login can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}
