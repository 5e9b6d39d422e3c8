package auditlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/omprakash24d/mockify-auth/internal/models"
	pkglogger "github.com/omprakash24d/mockify-auth/pkg/logger"
)

// Heuristic thresholds for suspicious-activity detection. Deliberately
// hard-coded: they describe patterns, not policy.
const (
	bruteForceThreshold = 5
	bruteForceWindow    = 10 * time.Minute

	enumerationThreshold = 10
	enumerationWindow    = 5 * time.Minute
)

// LogStore is the persistence interface for auth log entries.
type LogStore interface {
	Append(ctx context.Context, entry *models.AuthLogEntry) error
	Recent(ctx context.Context, limit int) ([]*models.AuthLogEntry, error)
	Since(ctx context.Context, since time.Time) ([]*models.AuthLogEntry, error)
	TrimToCap(ctx context.Context, max int) (int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Notifier receives suspicious-activity alerts.
type Notifier interface {
	NotifySuspiciousActivity(ctx context.Context, kind, detail string)
}

// AuthLogger is the append-only auth event log. Entries never hold a raw
// email; addresses are masked on the way in ("unknown" passes through as the
// literal sentinel). The store is capped and time-pruned.
type AuthLogger struct {
	store      LogStore
	notifier   Notifier
	audit      *pkglogger.AuditLogger
	logger     *slog.Logger
	maxEntries int
	retention  time.Duration
	now        func() time.Time
}

// NewAuthLogger creates the logger and immediately prunes entries past the
// retention period. Retention is otherwise enforced only by the janitor, so
// a restart after long downtime starts from a clean log.
func NewAuthLogger(store LogStore, notifier Notifier, audit *pkglogger.AuditLogger, logger *slog.Logger, maxEntries int, retention time.Duration) *AuthLogger {
	al := &AuthLogger{
		store:      store,
		notifier:   notifier,
		audit:      audit,
		logger:     logger,
		maxEntries: maxEntries,
		retention:  retention,
		now:        time.Now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := store.DeleteOlderThan(ctx, al.now().Add(-retention)); err != nil {
		logger.Warn("failed to prune aged auth logs", slog.Any("error", err))
	}

	return al
}

// LogSuccess records a successful auth event.
func (al *AuthLogger) LogSuccess(ctx context.Context, eventType, email, sessionID, userAgent string) {
	al.append(ctx, &models.AuthLogEntry{
		EventType: eventType,
		Status:    models.LogStatusSuccess,
		Email:     pkglogger.MaskEmail(email),
		SessionID: sessionID,
		UserAgent: userAgent,
	})
}

// LogFailure records a failed auth event and runs the suspicious-activity
// heuristics over the recent history.
func (al *AuthLogger) LogFailure(ctx context.Context, eventType, email, errorType, message, userAgent string) {
	masked := pkglogger.MaskEmail(email)
	al.append(ctx, &models.AuthLogEntry{
		EventType: eventType,
		Status:    models.LogStatusFailure,
		Email:     masked,
		ErrorType: errorType,
		Message:   message,
		UserAgent: userAgent,
	})

	al.checkSuspiciousActivity(ctx, masked, errorType)
}

// LogWarning records a warning-level event (suspicious activity, integrity
// failures). Warnings never feed back into the heuristics.
func (al *AuthLogger) LogWarning(ctx context.Context, eventType, email, message string) {
	al.append(ctx, &models.AuthLogEntry{
		EventType: eventType,
		Status:    models.LogStatusWarning,
		Email:     pkglogger.MaskEmail(email),
		Message:   message,
	})
}

// GetLogs returns up to limit entries, most recent first. Limit defaults
// to 100 when non-positive.
func (al *AuthLogger) GetLogs(ctx context.Context, limit int) ([]*models.AuthLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return al.store.Recent(ctx, limit)
}

// GetStats aggregates activity over the trailing number of hours (default 24).
func (al *AuthLogger) GetStats(ctx context.Context, hours int) (*models.AuthStats, error) {
	if hours <= 0 {
		hours = 24
	}

	entries, err := al.store.Since(ctx, al.now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, err
	}

	stats := &models.AuthStats{
		UniqueEmails:       make(map[string]bool),
		SuspiciousActivity: make([]models.AuthLogEntry, 0),
	}

	for _, entry := range entries {
		switch entry.Status {
		case models.LogStatusSuccess:
			stats.TotalAttempts++
			stats.SuccessfulAttempts++
		case models.LogStatusFailure:
			stats.TotalAttempts++
			stats.FailedAttempts++
		case models.LogStatusWarning:
			stats.SuspiciousActivity = append(stats.SuspiciousActivity, *entry)
		}
		if entry.Email != "" && entry.Email != "unknown" {
			stats.UniqueEmails[entry.Email] = true
		}
	}
	stats.UniqueEmailCount = len(stats.UniqueEmails)

	return stats, nil
}

// Prune enforces time-based retention. Called by the janitor; the entry cap
// is enforced on every append.
func (al *AuthLogger) Prune(ctx context.Context) (int64, error) {
	return al.store.DeleteOlderThan(ctx, al.now().Add(-al.retention))
}

func (al *AuthLogger) append(ctx context.Context, entry *models.AuthLogEntry) {
	entry.Timestamp = al.now()
	if entry.Email == "" {
		entry.Email = "unknown"
	}

	if err := al.store.Append(ctx, entry); err != nil {
		al.logger.Error("failed to append auth log entry", slog.Any("error", err))
		return
	}
	if _, err := al.store.TrimToCap(ctx, al.maxEntries); err != nil {
		al.logger.Warn("failed to trim auth log", slog.Any("error", err))
	}

	al.audit.LogAuthEvent(pkglogger.AuditEvent{
		EventType: entry.EventType,
		Status:    entry.Status,
		Email:     entry.Email,
		ErrorType: entry.ErrorType,
		Message:   entry.Message,
		SessionID: entry.SessionID,
		UserAgent: entry.UserAgent,
	})
}

// checkSuspiciousActivity scans the recent history for brute-force and
// enumeration patterns. Hits are logged as warnings and forwarded to the
// notifier; nothing is blocked here.
func (al *AuthLogger) checkSuspiciousActivity(ctx context.Context, maskedEmail, errorType string) {
	now := al.now()

	recent, err := al.store.Since(ctx, now.Add(-bruteForceWindow))
	if err != nil {
		al.logger.Warn("failed to scan auth log for suspicious activity", slog.Any("error", err))
		return
	}

	emailFailures := 0
	notFoundEvents := 0
	enumerationCutoff := now.Add(-enumerationWindow)

	for _, entry := range recent {
		if entry.Status != models.LogStatusFailure {
			continue
		}
		if entry.Email == maskedEmail {
			emailFailures++
		}
		if entry.ErrorType == "auth/user-not-found" && !entry.Timestamp.Before(enumerationCutoff) {
			notFoundEvents++
		}
	}

	if emailFailures >= bruteForceThreshold {
		al.LogWarning(ctx, "brute_force_suspected", maskedEmail, "repeated login failures for one account")
		if al.notifier != nil {
			al.notifier.NotifySuspiciousActivity(ctx, "brute_force", maskedEmail)
		}
	}

	if errorType == "auth/user-not-found" && notFoundEvents >= enumerationThreshold {
		al.LogWarning(ctx, "enumeration_suspected", "unknown", "burst of user-not-found failures")
		if al.notifier != nil {
			al.notifier.NotifySuspiciousActivity(ctx, "enumeration", "user-not-found burst")
		}
	}
}
