package security

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/omprakash24d/mockify-auth/internal/models"
)

// AttemptStore is the persistence interface for login attempts.
type AttemptStore interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
	RecentAttempts(ctx context.Context, email string, since time.Time) ([]*models.LoginAttempt, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// LockoutTracker decides account lockout from the failed-attempt history of
// an email inside the trailing lockout window. A successful attempt is
// recorded but does not clear earlier failures; only the window passing does.
type LockoutTracker struct {
	store       AttemptStore
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewLockoutTracker creates a tracker with the given failure threshold and
// lockout window.
func NewLockoutTracker(store AttemptStore, maxAttempts int, window time.Duration, logger *slog.Logger) *LockoutTracker {
	return &LockoutTracker{
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		now:         time.Now,
	}
}

// RecordAttempt appends a login attempt and reports whether the account is
// still under the failure threshold (true = not locked by this attempt).
// Storage errors degrade to allowing the attempt; lockout is a hardening
// layer, not the authority on credentials.
func (lt *LockoutTracker) RecordAttempt(ctx context.Context, email string, success bool, ipAddress, userAgent string) (bool, error) {
	email = normalizeEmail(email)
	now := lt.now()

	attempt := &models.LoginAttempt{
		Email:       email,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		AttemptTime: now,
		Success:     success,
		ExpiresAt:   now.Add(lt.window),
	}

	if err := lt.store.RecordAttempt(ctx, attempt); err != nil {
		lt.logger.Error("failed to record login attempt", slog.Any("error", err))
		return true, err
	}

	locked, err := lt.IsLocked(ctx, email)
	if err != nil {
		return true, err
	}
	return !locked, nil
}

// IsLocked reports whether the email has reached the failure threshold
// within the lockout window.
func (lt *LockoutTracker) IsLocked(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)

	failures, err := lt.recentFailures(ctx, email)
	if err != nil {
		lt.logger.Error("failed to check lockout state", slog.Any("error", err))
		// Fail open for availability; the provider still verifies credentials.
		return false, err
	}

	if len(failures) >= lt.maxAttempts {
		lt.logger.Warn("account locked out",
			slog.Int("failed_attempts", len(failures)),
			slog.Duration("window", lt.window))
		return true, nil
	}
	return false, nil
}

// RemainingLockout returns how long until the lockout clears: the oldest of
// the last maxAttempts failures plus the window, minus now, floored at zero.
func (lt *LockoutTracker) RemainingLockout(ctx context.Context, email string) (time.Duration, error) {
	email = normalizeEmail(email)

	failures, err := lt.recentFailures(ctx, email)
	if err != nil {
		return 0, err
	}
	if len(failures) < lt.maxAttempts {
		return 0, nil
	}

	// failures are ordered oldest first; the lockout clears when the oldest
	// of the counted failures ages out of the window.
	counted := failures[len(failures)-lt.maxAttempts:]
	remaining := counted[0].AttemptTime.Add(lt.window).Sub(lt.now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// PruneExpired removes attempts past their expiry. Called by the janitor;
// reads already filter by window, so this is storage hygiene only.
func (lt *LockoutTracker) PruneExpired(ctx context.Context) (int64, error) {
	return lt.store.DeleteExpired(ctx, lt.now())
}

func (lt *LockoutTracker) recentFailures(ctx context.Context, email string) ([]*models.LoginAttempt, error) {
	since := lt.now().Add(-lt.window)
	attempts, err := lt.store.RecentAttempts(ctx, email, since)
	if err != nil {
		return nil, err
	}

	failures := make([]*models.LoginAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		if !attempt.Success {
			failures = append(failures, attempt)
		}
	}
	return failures, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
