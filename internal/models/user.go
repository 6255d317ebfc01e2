package models

import "time"

// Identity is the authenticated user bound to a browser session.
type Identity struct {
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
