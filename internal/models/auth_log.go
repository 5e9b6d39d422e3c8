package models

import "time"

// Auth log entry statuses
const (
	LogStatusSuccess = "success"
	LogStatusFailure = "failure"
	LogStatusWarning = "warning"
)

// AuthLogEntry is one record in the append-only auth event log. Email is
// always stored masked; the only raw value that may appear is the literal
// sentinel "unknown".
type AuthLogEntry struct {
	ID        string    `db:"id" json:"id"`
	Timestamp time.Time `db:"created_at" json:"timestamp"`
	EventType string    `db:"event_type" json:"eventType"`
	Status    string    `db:"status" json:"status"`
	Email     string    `db:"email" json:"email"`
	ErrorType string    `db:"error_type" json:"errorType,omitempty"`
	Message   string    `db:"message" json:"message,omitempty"`
	UserAgent string    `db:"user_agent" json:"userAgent,omitempty"`
	SessionID string    `db:"session_id" json:"sessionId,omitempty"`
}

// AuthStats aggregates log activity over a trailing window.
type AuthStats struct {
	TotalAttempts      int             `json:"totalAttempts"`
	SuccessfulAttempts int             `json:"successfulAttempts"`
	FailedAttempts     int             `json:"failedAttempts"`
	UniqueEmails       map[string]bool `json:"-"`
	UniqueEmailCount   int             `json:"uniqueEmails"`
	SuspiciousActivity []AuthLogEntry  `json:"suspiciousActivity"`
}
