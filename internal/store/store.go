package store

import "context"

// UserStore checks credentials for the session gate. Implementations decide
// how passwords are kept; route logic only sees this capability.
type UserStore interface {
	// Verify returns ErrInvalidCredentials when the pair does not match.
	Verify(ctx context.Context, username, password string) error
	Exists(ctx context.Context, username string) (bool, error)
}
