package security

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLimiter(window time.Duration) (*RateLimiter, *time.Time) {
	rl := NewRateLimiter(window, map[Scope]int{
		ScopeLogin:  5,
		ScopeSignup: 2,
		ScopeReset:  3,
	}, testLogger())

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestRateLimiterAllowWithinLimit(t *testing.T) {
	rl, _ := newTestLimiter(15 * time.Minute)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(ScopeLogin, "user@example.com"), "attempt %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow(ScopeLogin, "user@example.com"), "sixth attempt should be denied")
}

func TestRateLimiterResetScope(t *testing.T) {
	rl, _ := newTestLimiter(15 * time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(ScopeReset, "user@example.com"))
	}
	assert.False(t, rl.Allow(ScopeReset, "user@example.com"), "fourth reset request should be denied")
}

func TestRateLimiterIdentifiersAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(15 * time.Minute)

	assert.True(t, rl.Allow(ScopeSignup, "203.0.113.1"))
	assert.True(t, rl.Allow(ScopeSignup, "203.0.113.1"))
	assert.False(t, rl.Allow(ScopeSignup, "203.0.113.1"))

	// A different IP has its own window.
	assert.True(t, rl.Allow(ScopeSignup, "203.0.113.2"))
}

func TestRateLimiterScopesAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(15 * time.Minute)

	assert.True(t, rl.Allow(ScopeSignup, "user@example.com"))
	assert.True(t, rl.Allow(ScopeSignup, "user@example.com"))
	assert.False(t, rl.Allow(ScopeSignup, "user@example.com"))

	// The same identifier under another scope is unaffected.
	assert.True(t, rl.Allow(ScopeLogin, "user@example.com"))
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter(15 * time.Minute)

	for i := 0; i < 3; i++ {
		rl.Allow(ScopeReset, "user@example.com")
	}
	assert.False(t, rl.Allow(ScopeReset, "user@example.com"))

	*clock = clock.Add(15*time.Minute + time.Second)

	assert.True(t, rl.Allow(ScopeReset, "user@example.com"), "a fresh window should readmit the identifier")
}

func TestRateLimiterUnknownScopeIsUnlimited(t *testing.T) {
	rl, _ := newTestLimiter(15 * time.Minute)

	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow(Scope("unknown"), "user@example.com"))
	}
}

func TestRateLimiterRemaining(t *testing.T) {
	rl, clock := newTestLimiter(15 * time.Minute)

	assert.Equal(t, time.Duration(0), rl.Remaining(ScopeLogin, "user@example.com"))

	rl.Allow(ScopeLogin, "user@example.com")
	assert.Equal(t, 15*time.Minute, rl.Remaining(ScopeLogin, "user@example.com"))

	*clock = clock.Add(10 * time.Minute)
	assert.Equal(t, 5*time.Minute, rl.Remaining(ScopeLogin, "user@example.com"))

	*clock = clock.Add(10 * time.Minute)
	assert.Equal(t, time.Duration(0), rl.Remaining(ScopeLogin, "user@example.com"))
}

func TestRateLimiterPurgeExpired(t *testing.T) {
	rl, clock := newTestLimiter(15 * time.Minute)

	rl.Allow(ScopeLogin, "a@example.com")
	rl.Allow(ScopeReset, "b@example.com")

	assert.Equal(t, 0, rl.PurgeExpired())

	*clock = clock.Add(16 * time.Minute)
	assert.Equal(t, 2, rl.PurgeExpired())
}
