package models

import "time"

// Session is the gateway-side session record for an authenticated user.
// One active session per user; LastActivity slides forward on every
// successful validation.
type Session struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	SessionID    string    `json:"sessionId"`
	CSRFToken    string    `json:"csrfToken,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// SessionSnapshot is the persisted mirror of a Session plus its integrity
// tag. The tag detects accidental tampering of the stored record; it is not
// a signature.
type SessionSnapshot struct {
	Session
	Checksum string `json:"checksum"`
}
