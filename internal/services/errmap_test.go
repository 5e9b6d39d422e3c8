package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omprakash24d/mockify-auth/internal/models"
	"github.com/omprakash24d/mockify-auth/internal/provider"
)

func TestUserMessageKnownCodes(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{provider.CodeUserNotFound, "No account found with this email address."},
		{provider.CodeWrongPassword, "Incorrect password. Please try again."},
		{provider.CodeInvalidCredential, "Incorrect email or password. Please try again."},
		{provider.CodeEmailInUse, "An account with this email already exists."},
		{provider.CodeUserDisabled, "This account has been disabled. Please contact support."},
		{provider.CodeTooManyRequests, "Too many attempts. Please try again later."},
		{provider.CodeExpiredActionCode, "This link has expired. Please request a new one."},
		{provider.CodeNetworkFailure, "Network error. Please check your connection and try again."},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := &provider.Error{Code: tt.code, Message: "raw wire detail"}
			assert.Equal(t, tt.expected, UserMessage(err))
		})
	}
}

func TestUserMessageSentinels(t *testing.T) {
	assert.Contains(t, UserMessage(models.ErrAccountLocked), "temporarily locked")
	assert.Contains(t, UserMessage(models.ErrRateLimitExceeded), "Too many requests")
	assert.Contains(t, UserMessage(models.ErrInvalidCSRFToken), "reload the page")
	assert.Contains(t, UserMessage(models.ErrSessionExpired), "sign in again")

	// Wrapped sentinels still match.
	wrapped := fmt.Errorf("%w: retry in 5m0s", models.ErrAccountLocked)
	assert.Contains(t, UserMessage(wrapped), "temporarily locked")
}

func TestUserMessageHeuristicFallback(t *testing.T) {
	assert.Equal(t,
		"There is a problem with the password you entered.",
		UserMessage(errors.New("provider rejected password update")))
	assert.Equal(t,
		"There is a problem with the email address you entered.",
		UserMessage(errors.New("malformed email payload")))
	assert.Equal(t,
		"Network error. Please check your connection and try again.",
		UserMessage(errors.New("dial tcp: i/o timeout")))
}

func TestUserMessageGenericFallback(t *testing.T) {
	assert.Equal(t, genericUserMessage, UserMessage(errors.New("something opaque")))
}

func TestUserMessageNeverLeaksWireDetail(t *testing.T) {
	err := &provider.Error{Code: provider.CodeWrongPassword, Message: "INVALID_PASSWORD for uid 4821"}
	assert.NotContains(t, UserMessage(err), "4821")
	assert.NotContains(t, UserMessage(err), "INVALID_PASSWORD")
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(&provider.Error{Code: provider.CodeWrongPassword}))
	assert.False(t, isRetryable(&provider.Error{Code: provider.CodeUserNotFound}))
	assert.False(t, isRetryable(&provider.Error{Code: provider.CodeTooManyRequests}))
	assert.False(t, isRetryable(&provider.Error{Code: provider.CodeOperationNotAllowed}))

	assert.True(t, isRetryable(&provider.Error{Code: provider.CodeNetworkFailure}))
	assert.True(t, isRetryable(&provider.Error{Code: provider.CodeInternal}))
	assert.True(t, isRetryable(errors.New("plain transport error")))
}
