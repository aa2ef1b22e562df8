// Package boltdb persists the CLI client's identity token between
// invocations. This is the only client-side state; the server never
// trusts it beyond the token-to-session mapping it issued itself.
package boltdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// ErrNotAuthenticated indicates that no identity token is stored
var ErrNotAuthenticated = errors.New("not authenticated")

var (
	bucketAuth = []byte("auth")
	keyCurrent = []byte("current")
)

// AuthData is the stored login state
type AuthData struct {
	SavedAt   time.Time `json:"saved_at"`   // when the token was stored
	Login     string    `json:"login"`      // account the token belongs to
	Identity  string    `json:"identity"`   // signed identity token
	ServerURL string    `json:"server_url"` // server the token was issued by
}

// Storage is a bbolt-backed credential store
type Storage struct {
	db *bbolt.DB
}

// New opens (or creates) the client database and ensures buckets exist.
func New(path string) (*Storage, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open client database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAuth)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveAuth stores the login state, replacing any previous one.
func (s *Storage) SaveAuth(auth *AuthData) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		data, err := json.Marshal(auth)
		if err != nil {
			return fmt.Errorf("failed to marshal auth data: %w", err)
		}

		if err := bucket.Put(keyCurrent, data); err != nil {
			return fmt.Errorf("failed to save auth data: %w", err)
		}

		return nil
	})
}

// GetAuth retrieves the stored login state.
func (s *Storage) GetAuth() (*AuthData, error) {
	var auth *AuthData

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		data := bucket.Get(keyCurrent)
		if data == nil {
			return ErrNotAuthenticated
		}

		auth = &AuthData{}
		if err := json.Unmarshal(data, auth); err != nil {
			return fmt.Errorf("failed to unmarshal auth data: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return auth, nil
}

// DeleteAuth removes the stored login state (logout). Deleting absent
// state is not an error.
func (s *Storage) DeleteAuth() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		return bucket.Delete(keyCurrent)
	})
}
