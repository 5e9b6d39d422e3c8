package security

import (
	"log/slog"
	"time"

	"github.com/omprakash24d/mockify-auth/internal/models"
)

// DetectSessionHijack flags coarse hijacking signals on a validated session:
// the request's user agent differing from the one pinned at session creation,
// or the session's activity clock running backwards. Best-effort heuristic
// only; callers log and may force re-auth, but this is not authoritative.
func DetectSessionHijack(session *models.Session, currentUserAgent string, now time.Time, logger *slog.Logger) bool {
	if session == nil {
		return false
	}

	if session.UserAgent != "" && currentUserAgent != "" && session.UserAgent != currentUserAgent {
		logger.Warn("session user agent changed",
			slog.String("user_id", session.UserID),
			slog.String("session_id", session.SessionID))
		return true
	}

	// A last-activity timestamp in the future means the clock moved backwards
	// or the record was manipulated.
	if now.Before(session.LastActivity) {
		logger.Warn("session activity gap is negative",
			slog.String("user_id", session.UserID),
			slog.String("session_id", session.SessionID))
		return true
	}

	return false
}
