package domain

import (
	"time"
)

// Session represents a refresh token session. One row exists per issued
// refresh token, keyed by its jti claim. Rotation replaces the row; logout
// soft-revokes it so the audit trail survives.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	JTI       string    `json:"jti"`
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Usable reports whether the session can still mint new token pairs.
func (s *Session) Usable(now time.Time) bool {
	return !s.Revoked && !s.Expired(now)
}
