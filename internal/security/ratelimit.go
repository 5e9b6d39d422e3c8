package security

import (
	"log/slog"
	"sync"
	"time"
)

// Scope names a rate-limited action. All scopes share one fixed window but
// carry their own thresholds.
type Scope string

const (
	ScopeLogin  Scope = "login"
	ScopeSignup Scope = "signup"
	ScopeReset  Scope = "reset"
)

type windowEntry struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a fixed-window limiter keyed by (scope, identifier). The
// counter resets entirely at the window boundary; it does not slide.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limits  map[Scope]int
	entries map[string]*windowEntry
	logger  *slog.Logger
	now     func() time.Time
}

// NewRateLimiter creates a limiter with the given fixed window and per-scope
// maximum attempt counts.
func NewRateLimiter(window time.Duration, limits map[Scope]int, logger *slog.Logger) *RateLimiter {
	copied := make(map[Scope]int, len(limits))
	for scope, max := range limits {
		copied[scope] = max
	}
	return &RateLimiter{
		window:  window,
		limits:  copied,
		entries: make(map[string]*windowEntry),
		logger:  logger,
		now:     time.Now,
	}
}

// Allow reports whether another attempt is permitted for the identifier under
// the scope, counting the attempt if so. Unknown scopes are unlimited.
func (rl *RateLimiter) Allow(scope Scope, identifier string) bool {
	max, ok := rl.limits[scope]
	if !ok {
		return true
	}
	return rl.Check(string(scope), identifier, max)
}

// Check is the generic form of Allow for ad-hoc scopes with caller-supplied
// thresholds.
func (rl *RateLimiter) Check(scope, identifier string, max int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	key := scope + "_" + identifier

	entry, exists := rl.entries[key]
	if !exists || now.After(entry.resetTime) {
		rl.entries[key] = &windowEntry{count: 1, resetTime: now.Add(rl.window)}
		return true
	}

	if entry.count >= max {
		rl.logger.Warn("rate limit exceeded",
			slog.String("scope", scope),
			slog.Int("attempts", entry.count),
			slog.Time("reset_time", entry.resetTime))
		return false
	}

	entry.count++
	return true
}

// Remaining returns how long until the window for (scope, identifier) resets.
// Zero means the next attempt starts a fresh window.
func (rl *RateLimiter) Remaining(scope Scope, identifier string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.entries[string(scope)+"_"+identifier]
	if !exists {
		return 0
	}

	remaining := entry.resetTime.Sub(rl.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PurgeExpired drops entries whose window has passed. Called by the janitor.
func (rl *RateLimiter) PurgeExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	purged := 0
	for key, entry := range rl.entries {
		if now.After(entry.resetTime) {
			delete(rl.entries, key)
			purged++
		}
	}
	return purged
}
