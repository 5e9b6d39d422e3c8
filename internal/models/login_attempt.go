package models

import "time"

// LoginAttempt represents a single login attempt against the identity provider.
// Emails are stored lowercased; lockout decisions only ever look at failed
// attempts for one email inside the trailing lockout window.
type LoginAttempt struct {
	ID          string    `db:"id"`
	Email       string    `db:"email"`
	IPAddress   string    `db:"ip_address"`
	UserAgent   string    `db:"user_agent"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
	ExpiresAt   time.Time `db:"expires_at"`
}
