package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "test-api-key")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Security.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Security.LockoutWindow)
	assert.Equal(t, 24*time.Hour, cfg.Security.SessionTimeout)
	assert.Equal(t, 1*time.Hour, cfg.Security.CSRFTokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Security.JanitorInterval)
	assert.Equal(t, 2, cfg.Security.SignupMaxAttempts)
	assert.Equal(t, 3, cfg.Security.ResetMaxAttempts)
	assert.Equal(t, 1000, cfg.Security.LogMaxEntries)
	assert.True(t, cfg.Security.CSRFEnabled)
}

func TestLoad_MissingProviderKey(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SessionTimeoutAsMilliseconds(t *testing.T) {
	setRequiredEnv(t)
	// Legacy clients exported the timeout as raw milliseconds.
	t.Setenv("MOCKIFY_SESSION_TIMEOUT", "86400000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Security.SessionTimeout)
}

func TestLoad_OverrideMaxLoginAttempts(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MOCKIFY_MAX_LOGIN_ATTEMPTS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Security.MaxLoginAttempts)
}

func TestLoad_RejectsDisabledCSRFInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("MOCKIFY_CSRF_ENABLED", "false")

	_, err := Load()
	assert.Error(t, err)
}
