package auditlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omprakash24d/mockify-auth/internal/models"
	"github.com/omprakash24d/mockify-auth/internal/repositories"
	pkglogger "github.com/omprakash24d/mockify-auth/pkg/logger"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) NotifySuspiciousActivity(_ context.Context, kind, detail string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, kind+":"+detail)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func newTestAuthLogger(t *testing.T, maxEntries int) (*AuthLogger, *recordingNotifier, *time.Time) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{}
	al := NewAuthLogger(
		repositories.NewMemoryAuthLogRepository(),
		notifier,
		pkglogger.NewAuditLogger(logger),
		logger,
		maxEntries,
		30*24*time.Hour,
	)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	al.now = func() time.Time { return clock }
	return al, notifier, &clock
}

func TestAuthLoggerMasksEmails(t *testing.T) {
	al, _, _ := newTestAuthLogger(t, 1000)
	ctx := context.Background()

	al.LogSuccess(ctx, "login", "student@example.com", "sess-1", "Mozilla/5.0")

	logs, err := al.GetLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "s*****t@example.com", logs[0].Email)
	assert.Equal(t, models.LogStatusSuccess, logs[0].Status)
	assert.Equal(t, "sess-1", logs[0].SessionID)
}

func TestAuthLoggerEmptyEmailBecomesUnknown(t *testing.T) {
	al, _, _ := newTestAuthLogger(t, 1000)
	ctx := context.Background()

	al.LogFailure(ctx, "password_reset_confirm", "", "auth/invalid-action-code", "bad code", "")

	logs, err := al.GetLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "unknown", logs[0].Email)
}

func TestAuthLoggerCapEnforcedOnAppend(t *testing.T) {
	al, _, _ := newTestAuthLogger(t, 50)
	ctx := context.Background()

	for i := 0; i < 51; i++ {
		al.LogSuccess(ctx, "login", fmt.Sprintf("user%d@example.com", i), "", "")
	}

	logs, err := al.GetLogs(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, logs, 50)
	// Newest first; the oldest entry (user0) fell off the cap.
	assert.Equal(t, "u****0@example.com", logs[0].Email)
	assert.Equal(t, "u***1@example.com", logs[len(logs)-1].Email)
}

func TestAuthLoggerGetLogsDefaultLimit(t *testing.T) {
	al, _, _ := newTestAuthLogger(t, 1000)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		al.LogSuccess(ctx, "login", "student@example.com", "", "")
	}

	logs, err := al.GetLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 100)
}

func TestAuthLoggerBruteForceDetection(t *testing.T) {
	al, notifier, _ := newTestAuthLogger(t, 1000)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		al.LogFailure(ctx, "login", "student@example.com", "auth/wrong-password", "wrong password", "")
	}

	kinds := notifier.kinds()
	require.NotEmpty(t, kinds)
	assert.Contains(t, kinds[0], "brute_force")

	stats, err := al.GetStats(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, stats.SuspiciousActivity)
	assert.Equal(t, "brute_force_suspected", stats.SuspiciousActivity[0].EventType)
}

func TestAuthLoggerBruteForceScopedToOneEmail(t *testing.T) {
	al, notifier, _ := newTestAuthLogger(t, 1000)
	ctx := context.Background()

	// Four failures each for two accounts: neither crosses the threshold.
	for i := 0; i < 4; i++ {
		al.LogFailure(ctx, "login", "alice@example.com", "auth/wrong-password", "wrong password", "")
		al.LogFailure(ctx, "login", "bobby@example.com", "auth/wrong-password", "wrong password", "")
	}

	assert.Empty(t, notifier.kinds())
}

func TestAuthLoggerEnumerationDetection(t *testing.T) {
	al, notifier, _ := newTestAuthLogger(t, 1000)
	ctx := context.Background()

	// Ten user-not-found failures across different addresses inside five
	// minutes reads as account enumeration.
	for i := 0; i < 10; i++ {
		al.LogFailure(ctx, "login", fmt.Sprintf("probe%d@example.com", i), "auth/user-not-found", "no such user", "")
	}

	kinds := notifier.kinds()
	require.NotEmpty(t, kinds)
	assert.Contains(t, kinds[len(kinds)-1], "enumeration")
}

func TestAuthLoggerOldFailuresOutsideWindow(t *testing.T) {
	al, notifier, clock := newTestAuthLogger(t, 1000)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		al.LogFailure(ctx, "login", "student@example.com", "auth/wrong-password", "wrong password", "")
	}

	*clock = clock.Add(11 * time.Minute)
	al.LogFailure(ctx, "login", "student@example.com", "auth/wrong-password", "wrong password", "")

	// The four earlier failures aged out of the ten-minute window.
	assert.Empty(t, notifier.kinds())
}

func TestAuthLoggerGetStats(t *testing.T) {
	al, _, _ := newTestAuthLogger(t, 1000)
	ctx := context.Background()

	al.LogSuccess(ctx, "login", "alice@example.com", "sess-1", "")
	al.LogSuccess(ctx, "login", "alice@example.com", "sess-2", "")
	al.LogFailure(ctx, "login", "bobby@example.com", "auth/wrong-password", "wrong password", "")
	al.LogWarning(ctx, "session_hijack_suspected", "alice@example.com", "user agent drift")

	stats, err := al.GetStats(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAttempts)
	assert.Equal(t, 2, stats.SuccessfulAttempts)
	assert.Equal(t, 1, stats.FailedAttempts)
	assert.Equal(t, 2, stats.UniqueEmailCount)
	assert.Len(t, stats.SuspiciousActivity, 1)
}

func TestAuthLoggerStatsWindow(t *testing.T) {
	al, _, clock := newTestAuthLogger(t, 1000)
	ctx := context.Background()

	al.LogSuccess(ctx, "login", "alice@example.com", "", "")
	*clock = clock.Add(25 * time.Hour)
	al.LogFailure(ctx, "login", "bobby@example.com", "auth/wrong-password", "wrong password", "")

	stats, err := al.GetStats(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAttempts)
	assert.Equal(t, 1, stats.FailedAttempts)
}

func TestAuthLoggerConstructionPrune(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryAuthLogRepository()

	stale := &models.AuthLogEntry{
		EventType: "login",
		Status:    models.LogStatusSuccess,
		Email:     "o*d@example.com",
		Timestamp: time.Now().Add(-31 * 24 * time.Hour),
	}
	require.NoError(t, store.Append(context.Background(), stale))

	al := NewAuthLogger(store, nil, pkglogger.NewAuditLogger(logger), logger, 1000, 30*24*time.Hour)

	logs, err := al.GetLogs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, logs, "entries past retention are swept at construction")
}
