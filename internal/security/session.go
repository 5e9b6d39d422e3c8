package security

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omprakash24d/mockify-auth/internal/models"
	"github.com/omprakash24d/mockify-auth/internal/storage"
)

const sessionKeyPrefix = "mockify_session:"

// SessionManager holds the active sessions in memory, one per user, and
// mirrors each to the snapshot store so a restarted process can pick them
// back up. Snapshots carry an integrity tag; a snapshot whose tag does not
// match its fields is discarded.
//
// The default tag is a truncated base64 of the session fields. It detects
// accidental corruption, not tampering by anyone who can write to the store.
// Supplying an HMAC secret switches the tag to HMAC-SHA256, which is the
// explicit upgrade path.
type SessionManager struct {
	mu         sync.RWMutex
	sessions   map[string]*models.Session
	store      storage.SnapshotStore
	timeout    time.Duration
	hmacSecret []byte
	logger     *slog.Logger
	now        func() time.Time
}

// NewSessionManager creates a session manager with a sliding inactivity
// timeout. hmacSecret may be empty to keep the legacy tag format.
func NewSessionManager(store storage.SnapshotStore, timeout time.Duration, hmacSecret string, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		sessions:   make(map[string]*models.Session),
		store:      store,
		timeout:    timeout,
		hmacSecret: []byte(hmacSecret),
		logger:     logger,
		now:        time.Now,
	}
}

// Create builds a fresh session for the account, replacing any existing
// session for the same user, and persists its snapshot.
func (sm *SessionManager) Create(ctx context.Context, account *models.ProviderAccount, userAgent, csrfToken string) (*models.Session, error) {
	now := sm.now()
	session := &models.Session{
		UserID:       account.UID,
		Email:        account.Email,
		SessionID:    uuid.NewString(),
		CSRFToken:    csrfToken,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
	}

	sm.mu.Lock()
	sm.sessions[account.UID] = session
	sm.mu.Unlock()

	if err := sm.persist(ctx, session); err != nil {
		sm.logger.Warn("failed to persist session snapshot",
			slog.String("user_id", account.UID),
			slog.Any("error", err))
	}

	return session, nil
}

// Validate returns the user's session after refreshing its activity time.
// It checks memory first and falls back to a stored snapshot. An expired
// session is destroyed and (nil, ErrSessionExpired) is returned; an unknown
// user returns (nil, ErrSessionNotFound).
func (sm *SessionManager) Validate(ctx context.Context, userID string) (*models.Session, error) {
	sm.mu.RLock()
	session, ok := sm.sessions[userID]
	sm.mu.RUnlock()

	if !ok {
		restored, err := sm.restore(ctx, userID)
		if err != nil {
			return nil, err
		}
		session = restored
		sm.mu.Lock()
		sm.sessions[userID] = session
		sm.mu.Unlock()
	}

	now := sm.now()
	if now.Sub(session.LastActivity) > sm.timeout {
		if err := sm.Destroy(ctx, userID); err != nil {
			sm.logger.Warn("failed to destroy expired session", slog.Any("error", err))
		}
		return nil, models.ErrSessionExpired
	}

	sm.mu.Lock()
	session.LastActivity = now
	sm.mu.Unlock()

	if err := sm.persist(ctx, session); err != nil {
		sm.logger.Warn("failed to refresh session snapshot",
			slog.String("user_id", userID),
			slog.Any("error", err))
	}

	return session, nil
}

// Destroy removes the session from memory and deletes its snapshot.
func (sm *SessionManager) Destroy(ctx context.Context, userID string) error {
	sm.mu.Lock()
	delete(sm.sessions, userID)
	sm.mu.Unlock()

	return sm.store.Delete(ctx, sessionKeyPrefix+userID)
}

// DestroyAll clears every active session. Used on secure logout; rate-limit
// state is deliberately left alone.
func (sm *SessionManager) DestroyAll(ctx context.Context) {
	sm.mu.Lock()
	userIDs := make([]string, 0, len(sm.sessions))
	for userID := range sm.sessions {
		userIDs = append(userIDs, userID)
	}
	sm.sessions = make(map[string]*models.Session)
	sm.mu.Unlock()

	for _, userID := range userIDs {
		if err := sm.store.Delete(ctx, sessionKeyPrefix+userID); err != nil {
			sm.logger.Warn("failed to delete session snapshot",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
	}
}

// PurgeExpired drops sessions past the inactivity timeout. Called by the
// janitor.
func (sm *SessionManager) PurgeExpired(ctx context.Context) int {
	now := sm.now()

	sm.mu.Lock()
	expired := make([]string, 0)
	for userID, session := range sm.sessions {
		if now.Sub(session.LastActivity) > sm.timeout {
			delete(sm.sessions, userID)
			expired = append(expired, userID)
		}
	}
	sm.mu.Unlock()

	for _, userID := range expired {
		if err := sm.store.Delete(ctx, sessionKeyPrefix+userID); err != nil {
			sm.logger.Warn("failed to delete expired session snapshot",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
	}
	return len(expired)
}

// ActiveCount returns the number of in-memory sessions.
func (sm *SessionManager) ActiveCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func (sm *SessionManager) persist(ctx context.Context, session *models.Session) error {
	sm.mu.RLock()
	snapshot := models.SessionSnapshot{Session: *session}
	sm.mu.RUnlock()
	snapshot.Checksum = sm.integrityTag(&snapshot.Session)

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	return sm.store.Set(ctx, sessionKeyPrefix+session.UserID, encoded, sm.timeout)
}

func (sm *SessionManager) restore(ctx context.Context, userID string) (*models.Session, error) {
	encoded, err := sm.store.Get(ctx, sessionKeyPrefix+userID)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, models.ErrSessionNotFound
		}
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Corrupt snapshots are treated as absent, never surfaced.
		sm.discard(ctx, userID)
		return nil, models.ErrSessionNotFound
	}

	var snapshot models.SessionSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		sm.discard(ctx, userID)
		return nil, models.ErrSessionNotFound
	}

	if !sm.verifyTag(&snapshot) {
		sm.logger.Warn("session snapshot integrity check failed",
			slog.String("user_id", userID))
		sm.discard(ctx, userID)
		return nil, models.ErrSessionNotFound
	}

	session := snapshot.Session
	return &session, nil
}

func (sm *SessionManager) discard(ctx context.Context, userID string) {
	if err := sm.store.Delete(ctx, sessionKeyPrefix+userID); err != nil {
		sm.logger.Warn("failed to discard bad session snapshot", slog.Any("error", err))
	}
}

// integrityTag computes the snapshot tag over the session's identity fields.
// Legacy format: the first 16 characters of
// base64("userId_email_lastActivityMillis_sessionId_csrfToken").
func (sm *SessionManager) integrityTag(session *models.Session) string {
	payload := fmt.Sprintf("%s_%s_%d_%s_%s",
		session.UserID,
		session.Email,
		session.LastActivity.UnixMilli(),
		session.SessionID,
		session.CSRFToken,
	)

	if len(sm.hmacSecret) > 0 {
		mac := hmac.New(sha256.New, sm.hmacSecret)
		mac.Write([]byte(payload))
		return base64.StdEncoding.EncodeToString(mac.Sum(nil))
	}

	tag := base64.StdEncoding.EncodeToString([]byte(payload))
	if len(tag) > 16 {
		tag = tag[:16]
	}
	return tag
}

func (sm *SessionManager) verifyTag(snapshot *models.SessionSnapshot) bool {
	expected := sm.integrityTag(&snapshot.Session)
	return hmac.Equal([]byte(expected), []byte(snapshot.Checksum))
}
