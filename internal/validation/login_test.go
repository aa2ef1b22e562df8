package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name    string
		login   string
		wantErr bool
	}{
		{name: "valid simple login", login: "alice", wantErr: false},
		{name: "valid with digits and underscore", login: "alice_01", wantErr: false},
		{name: "valid minimum length", login: "abc", wantErr: false},
		{name: "valid maximum length", login: strings.Repeat("a", 32), wantErr: false},
		{name: "empty login", login: "", wantErr: true},
		{name: "too short", login: "ab", wantErr: true},
		{name: "too long", login: strings.Repeat("a", 33), wantErr: true},
		{name: "contains space", login: "ali ce", wantErr: true},
		{name: "contains dash", login: "ali-ce", wantErr: true},
		{name: "contains unicode", login: "алиса", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogin(tt.login)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid password", password: "correcthorse", wantErr: false},
		{name: "valid minimum length", password: "12345678", wantErr: false},
		{name: "empty password", password: "", wantErr: true},
		{name: "too short", password: "1234567", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
