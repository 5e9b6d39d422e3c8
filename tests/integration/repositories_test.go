package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omprakash24d/mockify-auth/internal/models"
	"github.com/omprakash24d/mockify-auth/internal/repositories"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	if os.Getenv("SKIP_INTEGRATION") != "" {
		os.Exit(0)
	}

	ctx := context.Background()

	var err error
	testDB, err = SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	testDB.Teardown(ctx)
	os.Exit(code)
}

func cleanTables(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
}

func TestLoginAttemptRepository(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := repositories.NewLoginAttemptRepository(testDB.DB)

	now := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RecordAttempt(ctx, &models.LoginAttempt{
			Email:       "student@example.com",
			IPAddress:   "203.0.113.1",
			UserAgent:   "Mozilla/5.0",
			AttemptTime: now.Add(time.Duration(i) * time.Minute),
			Success:     i == 2,
			ExpiresAt:   now.Add(15 * time.Minute),
		}))
	}
	// A different account should not appear in the query below.
	require.NoError(t, repo.RecordAttempt(ctx, &models.LoginAttempt{
		Email:       "other@example.com",
		AttemptTime: now,
		ExpiresAt:   now.Add(15 * time.Minute),
	}))

	attempts, err := repo.RecentAttempts(ctx, "student@example.com", now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, attempts, 3)

	// Oldest first, fields intact.
	assert.True(t, attempts[0].AttemptTime.Before(attempts[2].AttemptTime))
	assert.Equal(t, "203.0.113.1", attempts[0].IPAddress)
	assert.False(t, attempts[0].Success)
	assert.True(t, attempts[2].Success)
	assert.NotEmpty(t, attempts[0].ID)
}

func TestLoginAttemptRepositoryWindowFilter(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := repositories.NewLoginAttemptRepository(testDB.DB)

	now := time.Now().UTC()

	require.NoError(t, repo.RecordAttempt(ctx, &models.LoginAttempt{
		Email:       "student@example.com",
		AttemptTime: now.Add(-20 * time.Minute),
		ExpiresAt:   now.Add(-5 * time.Minute),
	}))
	require.NoError(t, repo.RecordAttempt(ctx, &models.LoginAttempt{
		Email:       "student@example.com",
		AttemptTime: now,
		ExpiresAt:   now.Add(15 * time.Minute),
	}))

	attempts, err := repo.RecentAttempts(ctx, "student@example.com", now.Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Len(t, attempts, 1, "attempts outside the window are not read")
}

func TestLoginAttemptRepositoryDeleteExpired(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := repositories.NewLoginAttemptRepository(testDB.DB)

	now := time.Now().UTC()

	require.NoError(t, repo.RecordAttempt(ctx, &models.LoginAttempt{
		Email:       "student@example.com",
		AttemptTime: now.Add(-time.Hour),
		ExpiresAt:   now.Add(-45 * time.Minute),
	}))
	require.NoError(t, repo.RecordAttempt(ctx, &models.LoginAttempt{
		Email:       "student@example.com",
		AttemptTime: now,
		ExpiresAt:   now.Add(15 * time.Minute),
	}))

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestAuthLogRepository(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := repositories.NewAuthLogRepository(testDB.DB)

	now := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, &models.AuthLogEntry{
			EventType: "login",
			Status:    models.LogStatusFailure,
			Email:     fmt.Sprintf("u***%d@example.com", i),
			ErrorType: "auth/wrong-password",
			Message:   "wrong password",
			UserAgent: "Mozilla/5.0",
			Timestamp: now.Add(time.Duration(i) * time.Second),
		}))
	}

	recent, err := repo.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "u***4@example.com", recent[0].Email, "newest first")

	since, err := repo.Since(ctx, now.Add(2*time.Second))
	require.NoError(t, err)
	require.Len(t, since, 3)
	assert.Equal(t, "u***2@example.com", since[0].Email, "oldest first")
}

func TestAuthLogRepositoryTrimToCap(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := repositories.NewAuthLogRepository(testDB.DB)

	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		require.NoError(t, repo.Append(ctx, &models.AuthLogEntry{
			EventType: "login",
			Status:    models.LogStatusSuccess,
			Email:     fmt.Sprintf("u***%d@example.com", i),
			Timestamp: now.Add(time.Duration(i) * time.Second),
		}))
	}

	trimmed, err := repo.TrimToCap(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), trimmed)

	remaining, err := repo.Recent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, remaining, 7)
	// The oldest three are the ones that went.
	assert.Equal(t, "u***3@example.com", remaining[len(remaining)-1].Email)
}

func TestAuthLogRepositoryDeleteOlderThan(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := repositories.NewAuthLogRepository(testDB.DB)

	now := time.Now().UTC()

	require.NoError(t, repo.Append(ctx, &models.AuthLogEntry{
		EventType: "login",
		Status:    models.LogStatusSuccess,
		Email:     "o*d@example.com",
		Timestamp: now.Add(-31 * 24 * time.Hour),
	}))
	require.NoError(t, repo.Append(ctx, &models.AuthLogEntry{
		EventType: "login",
		Status:    models.LogStatusSuccess,
		Email:     "n*w@example.com",
		Timestamp: now,
	}))

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "n*w@example.com", remaining[0].Email)
}
