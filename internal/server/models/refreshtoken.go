package models

import "time"

// RefreshToken is a server-side record of an issued refresh token.
// IsRevoked only ever goes from false to true.
type RefreshToken struct {
	ID         string
	UserID     string
	Token      string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	IsRevoked  bool
	DeviceInfo string
	IPAddress  string
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Usable reports whether the token may still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.IsRevoked && !t.Expired(now)
}
