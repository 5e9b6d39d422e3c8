package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/omprakash24d/mockify-auth/internal/auditlog"
	"github.com/omprakash24d/mockify-auth/internal/security"
)

// Janitor periodically purges expired sessions, stale rate-limit windows,
// expired CSRF tokens and aged storage records.
type Janitor struct {
	sessions *security.SessionManager
	limiter  *security.RateLimiter
	csrf     *security.CSRFTokenManager
	lockout  *security.LockoutTracker
	authLog  *auditlog.AuthLogger
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewJanitor creates a janitor over the given stores.
func NewJanitor(
	sessions *security.SessionManager,
	limiter *security.RateLimiter,
	csrf *security.CSRFTokenManager,
	lockout *security.LockoutTracker,
	authLog *auditlog.AuthLogger,
	logger *slog.Logger,
	interval time.Duration,
) *Janitor {
	return &Janitor{
		sessions: sessions,
		limiter:  limiter,
		csrf:     csrf,
		lockout:  lockout,
		authLog:  authLog,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the cleanup loop until stopped or the context is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on startup
	j.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			j.runCleanup(ctx)
		case <-j.stopCh:
			j.logger.Info("janitor stopped")
			return
		case <-ctx.Done():
			j.logger.Info("janitor context cancelled")
			return
		}
	}
}

// Stop signals the janitor to stop
func (j *Janitor) Stop() {
	close(j.stopCh)
}

func (j *Janitor) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sessions := j.sessions.PurgeExpired(cleanupCtx)
	windows := j.limiter.PurgeExpired()
	tokens := j.csrf.PurgeExpired()

	attempts, err := j.lockout.PruneExpired(cleanupCtx)
	if err != nil {
		j.logger.Error("failed to prune login attempts", slog.Any("error", err))
	}

	logs, err := j.authLog.Prune(cleanupCtx)
	if err != nil {
		j.logger.Error("failed to prune auth logs", slog.Any("error", err))
	}

	if sessions > 0 || windows > 0 || tokens > 0 || attempts > 0 || logs > 0 {
		j.logger.Info("cleanup completed",
			slog.Int("sessions", sessions),
			slog.Int("rate_windows", windows),
			slog.Int("csrf_tokens", tokens),
			slog.Int64("login_attempts", attempts),
			slog.Int64("auth_logs", logs))
	}
}
