package security

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// CSRFTokenManager issues single-use CSRF tokens. A token validates exactly
// once; validation removes it. When protection is disabled by configuration,
// every validation succeeds.
type CSRFTokenManager struct {
	mu       sync.Mutex
	tokens   map[string]time.Time // token -> expiry
	tokenTTL time.Duration
	enabled  bool
	now      func() time.Time
}

// NewCSRFTokenManager creates a new CSRF token manager
func NewCSRFTokenManager(ttl time.Duration, enabled bool) *CSRFTokenManager {
	return &CSRFTokenManager{
		tokens:   make(map[string]time.Time),
		tokenTTL: ttl,
		enabled:  enabled,
		now:      time.Now,
	}
}

// GenerateToken creates a new single-use token valid for the configured TTL.
func (m *CSRFTokenManager) GenerateToken() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	token := hex.EncodeToString(randomBytes)

	m.mu.Lock()
	m.tokens[token] = m.now().Add(m.tokenTTL)
	m.mu.Unlock()

	return token, nil
}

// ValidateToken consumes a token. It returns true for a known, unexpired
// token and deletes it either way once seen.
func (m *CSRFTokenManager) ValidateToken(token string) bool {
	if !m.enabled {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, exists := m.tokens[token]
	if !exists {
		return false
	}

	// Single use: the token is spent whether or not it was still fresh.
	delete(m.tokens, token)

	return !m.now().After(expiry)
}

// Clear drops every outstanding token. Used on secure logout.
func (m *CSRFTokenManager) Clear() {
	m.mu.Lock()
	m.tokens = make(map[string]time.Time)
	m.mu.Unlock()
}

// PurgeExpired removes expired tokens. Called by the janitor.
func (m *CSRFTokenManager) PurgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	purged := 0
	for token, expiry := range m.tokens {
		if now.After(expiry) {
			delete(m.tokens, token)
			purged++
		}
	}
	return purged
}
