package security

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omprakash24d/mockify-auth/internal/models"
	"github.com/omprakash24d/mockify-auth/internal/storage"
)

func newTestSessionManager(t *testing.T, hmacSecret string) (*SessionManager, storage.SnapshotStore, *time.Time) {
	t.Helper()

	store := storage.NewMemoryStore()
	sm := NewSessionManager(store, 24*time.Hour, hmacSecret, testLogger())

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return clock }
	return sm, store, &clock
}

func testAccount() *models.ProviderAccount {
	return &models.ProviderAccount{
		UID:           "uid-123",
		Email:         "student@example.com",
		DisplayName:   "Student",
		EmailVerified: true,
	}
}

func TestSessionCreateAndValidate(t *testing.T) {
	sm, _, _ := newTestSessionManager(t, "")
	ctx := context.Background()

	created, err := sm.Create(ctx, testAccount(), "Mozilla/5.0", "csrf-token")
	require.NoError(t, err)
	require.NotEmpty(t, created.SessionID)
	assert.Equal(t, "uid-123", created.UserID)
	assert.Equal(t, "csrf-token", created.CSRFToken)

	validated, err := sm.Validate(ctx, "uid-123")
	require.NoError(t, err)
	assert.Equal(t, created.SessionID, validated.SessionID)
	assert.Equal(t, 1, sm.ActiveCount())
}

func TestSessionValidateUnknownUser(t *testing.T) {
	sm, _, _ := newTestSessionManager(t, "")

	_, err := sm.Validate(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestSessionRestoreFromSnapshot(t *testing.T) {
	sm, store, _ := newTestSessionManager(t, "")
	ctx := context.Background()

	created, err := sm.Create(ctx, testAccount(), "Mozilla/5.0", "csrf-token")
	require.NoError(t, err)

	// Simulate a process restart: memory is gone, the snapshot is not.
	restarted := NewSessionManager(store, 24*time.Hour, "", testLogger())
	restarted.now = sm.now

	restored, err := restarted.Validate(ctx, "uid-123")
	require.NoError(t, err)
	assert.Equal(t, created.SessionID, restored.SessionID)
	assert.Equal(t, created.Email, restored.Email)
}

func TestSessionTamperedSnapshotDiscarded(t *testing.T) {
	sm, store, _ := newTestSessionManager(t, "")
	ctx := context.Background()

	_, err := sm.Create(ctx, testAccount(), "Mozilla/5.0", "csrf-token")
	require.NoError(t, err)

	// Flip the email inside the stored snapshot without fixing the tag.
	encoded, err := store.Get(ctx, sessionKeyPrefix+"uid-123")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var snapshot models.SessionSnapshot
	require.NoError(t, json.Unmarshal(raw, &snapshot))
	snapshot.Email = "attacker@example.com"
	tampered, err := json.Marshal(snapshot)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, sessionKeyPrefix+"uid-123", base64.StdEncoding.EncodeToString(tampered), time.Hour))

	restarted := NewSessionManager(store, 24*time.Hour, "", testLogger())
	restarted.now = sm.now

	_, err = restarted.Validate(ctx, "uid-123")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	// The bad snapshot was discarded, not left behind.
	_, err = store.Get(ctx, sessionKeyPrefix+"uid-123")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestSessionCorruptSnapshotDiscarded(t *testing.T) {
	sm, store, _ := newTestSessionManager(t, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, sessionKeyPrefix+"uid-123", "not base64 at all!!!", time.Hour))

	_, err := sm.Validate(ctx, "uid-123")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestSessionExpiry(t *testing.T) {
	sm, _, clock := newTestSessionManager(t, "")
	ctx := context.Background()

	_, err := sm.Create(ctx, testAccount(), "Mozilla/5.0", "csrf-token")
	require.NoError(t, err)

	*clock = clock.Add(24*time.Hour + time.Minute)

	_, err = sm.Validate(ctx, "uid-123")
	assert.ErrorIs(t, err, models.ErrSessionExpired)
	assert.Equal(t, 0, sm.ActiveCount())
}

func TestSessionActivityRefreshSlidesExpiry(t *testing.T) {
	sm, _, clock := newTestSessionManager(t, "")
	ctx := context.Background()

	_, err := sm.Create(ctx, testAccount(), "Mozilla/5.0", "csrf-token")
	require.NoError(t, err)

	// Touch the session every 12 hours; it should outlive the 24h timeout.
	for i := 0; i < 4; i++ {
		*clock = clock.Add(12 * time.Hour)
		_, err = sm.Validate(ctx, "uid-123")
		require.NoError(t, err)
	}
}

func TestSessionHMACTag(t *testing.T) {
	sm, store, _ := newTestSessionManager(t, "shared-hmac-secret")
	ctx := context.Background()

	_, err := sm.Create(ctx, testAccount(), "Mozilla/5.0", "csrf-token")
	require.NoError(t, err)

	// A manager with a different secret must refuse the snapshot.
	other := NewSessionManager(store, 24*time.Hour, "another-secret", testLogger())
	other.now = sm.now

	_, err = other.Validate(ctx, "uid-123")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestSessionDestroyAll(t *testing.T) {
	sm, store, _ := newTestSessionManager(t, "")
	ctx := context.Background()

	_, err := sm.Create(ctx, testAccount(), "Mozilla/5.0", "csrf-a")
	require.NoError(t, err)
	second := testAccount()
	second.UID = "uid-456"
	_, err = sm.Create(ctx, second, "Mozilla/5.0", "csrf-b")
	require.NoError(t, err)

	sm.DestroyAll(ctx)
	assert.Equal(t, 0, sm.ActiveCount())

	_, err = store.Get(ctx, sessionKeyPrefix+"uid-123")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	_, err = store.Get(ctx, sessionKeyPrefix+"uid-456")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestSessionPurgeExpired(t *testing.T) {
	sm, _, clock := newTestSessionManager(t, "")
	ctx := context.Background()

	_, err := sm.Create(ctx, testAccount(), "Mozilla/5.0", "csrf-a")
	require.NoError(t, err)

	*clock = clock.Add(12 * time.Hour)
	second := testAccount()
	second.UID = "uid-456"
	_, err = sm.Create(ctx, second, "Mozilla/5.0", "csrf-b")
	require.NoError(t, err)

	*clock = clock.Add(13 * time.Hour)
	assert.Equal(t, 1, sm.PurgeExpired(ctx))
	assert.Equal(t, 1, sm.ActiveCount())
}

func TestIntegrityTagFormat(t *testing.T) {
	sm, _, _ := newTestSessionManager(t, "")

	session := &models.Session{
		UserID:       "u1",
		Email:        "a@b.com",
		SessionID:    "s1",
		CSRFToken:    "c1",
		LastActivity: time.UnixMilli(1700000000000).UTC(),
	}

	payload := "u1_a@b.com_1700000000000_s1_c1"
	expected := base64.StdEncoding.EncodeToString([]byte(payload))[:16]
	assert.Equal(t, expected, sm.integrityTag(session))
}
