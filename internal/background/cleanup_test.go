package background

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omprakash24d/mockify-auth/internal/auditlog"
	"github.com/omprakash24d/mockify-auth/internal/repositories"
	"github.com/omprakash24d/mockify-auth/internal/security"
	"github.com/omprakash24d/mockify-auth/internal/storage"
	pkglogger "github.com/omprakash24d/mockify-auth/pkg/logger"
)

func newTestJanitor(t *testing.T) (*Janitor, *security.CSRFTokenManager) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sessions := security.NewSessionManager(storage.NewMemoryStore(), time.Hour, "", logger)
	limiter := security.NewRateLimiter(time.Hour, map[security.Scope]int{security.ScopeLogin: 5}, logger)
	csrf := security.NewCSRFTokenManager(time.Millisecond, true)
	lockout := security.NewLockoutTracker(repositories.NewMemoryLoginAttemptRepository(), 5, time.Hour, logger)
	authLog := auditlog.NewAuthLogger(
		repositories.NewMemoryAuthLogRepository(),
		nil,
		pkglogger.NewAuditLogger(logger),
		logger,
		1000,
		time.Hour,
	)

	return NewJanitor(sessions, limiter, csrf, lockout, authLog, logger, 10*time.Millisecond), csrf
}

func TestJanitorStopUnblocksStart(t *testing.T) {
	j, _ := newTestJanitor(t)

	done := make(chan struct{})
	go func() {
		j.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	j.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestJanitorContextCancelUnblocksStart(t *testing.T) {
	j, _ := newTestJanitor(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop on context cancel")
	}
}

func TestJanitorPurgesExpiredState(t *testing.T) {
	j, csrf := newTestJanitor(t)

	token, err := csrf.GenerateToken()
	require.NoError(t, err)

	// Millisecond TTL: the token is expired by the time the sweep runs.
	time.Sleep(5 * time.Millisecond)
	j.runCleanup(context.Background())

	assert.False(t, csrf.ValidateToken(token))
}
