package store

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is a credential failure for a username the store does not know.
	ErrUserNotFound = fmt.Errorf("user not found: %w", ErrInvalidCredentials)
)
