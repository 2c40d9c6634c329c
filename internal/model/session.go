package model

import "time"

// Session correlates one authenticated login with the hash of its current
// refresh token. The hash is the only form the refresh token is ever stored
// in; rotation overwrites it and logout clears it.
type Session struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id"`
	AccessTokenFingerprint string    `json:"access_token_fingerprint"`
	RefreshTokenHash       string    `json:"-"`
	IsActive               bool      `json:"is_active"`
	ExpiresAt              time.Time `json:"expires_at"`
	CreatedAt              time.Time `json:"created_at"`
	LastActivityAt         time.Time `json:"last_activity_at"`
	ClientIP               string    `json:"client_ip,omitempty"`
	UserAgent              string    `json:"user_agent,omitempty"`
}

// Expired reports whether the session is past its absolute expiry. An
// expired session is treated as inactive regardless of IsActive.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionInfo is the client-facing view of a session; it omits the
// refresh-token hash entirely.
type SessionInfo struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	ClientIP       string    `json:"client_ip,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	Current        bool      `json:"current"`
}

func (s Session) Info(currentSessionID string) SessionInfo {
	return SessionInfo{
		ID:             s.ID,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
		ExpiresAt:      s.ExpiresAt,
		ClientIP:       s.ClientIP,
		UserAgent:      s.UserAgent,
		Current:        s.ID == currentSessionID,
	}
}
