package services

import (
	"errors"

	"github.com/toteco/apiserver/internal/store"
)

var (
	// ErrNotFound is returned when a requested or referenced record does not exist.
	ErrNotFound = store.ErrNotFound

	// ErrInvalidCredentials is returned when a login does not match any account.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateUser is returned when the username or email is already taken.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrUnauthorized is returned when a token is missing, invalid, expired or
	// refers to an account that no longer exists.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStorageDisabled is returned by photo operations when no object
	// storage backend is configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
)

// affected maps a zero-row write to ErrNotFound.
func affected(n int64, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}
