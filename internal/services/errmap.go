package services

import (
	"errors"
	"strings"

	"github.com/omprakash24d/mockify-auth/internal/models"
	"github.com/omprakash24d/mockify-auth/internal/provider"
)

// userMessages is the fixed provider-code to user-facing message table.
var userMessages = map[string]string{
	provider.CodeUserNotFound:      "No account found with this email address.",
	provider.CodeWrongPassword:     "Incorrect password. Please try again.",
	provider.CodeInvalidCredential: "Incorrect email or password. Please try again.",
	provider.CodeEmailInUse:        "An account with this email already exists.",
	provider.CodeWeakPassword:      "Password is too weak. Please choose a stronger password.",
	provider.CodeInvalidEmail:      "Please enter a valid email address.",
	provider.CodeUserDisabled:      "This account has been disabled. Please contact support.",
	provider.CodeTooManyRequests:   "Too many attempts. Please try again later.",
	provider.CodeExpiredActionCode: "This link has expired. Please request a new one.",
	provider.CodeInvalidActionCode: "This link is invalid or has already been used.",
	provider.CodeNetworkFailure:    "Network error. Please check your connection and try again.",
}

const genericUserMessage = "Something went wrong. Please try again."

// UserMessage converts any auth error into a message safe to show the user.
// Known provider codes hit the fixed table, unknown provider errors fall
// back to substring heuristics on the raw message, and everything else gets
// a generic apology.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrAccountLocked):
		return "Too many failed attempts. Your account is temporarily locked; please try again later."
	case errors.Is(err, models.ErrRateLimitExceeded):
		return "Too many requests. Please wait a few minutes and try again."
	case errors.Is(err, models.ErrInvalidCSRFToken):
		return "Your session expired. Please reload the page and try again."
	case errors.Is(err, models.ErrWeakPassword):
		return "Password is too weak. Please choose a stronger password."
	case errors.Is(err, models.ErrSessionExpired), errors.Is(err, models.ErrSessionNotFound):
		return "Your session has ended. Please sign in again."
	}

	if code := provider.ErrorCode(err); code != "" {
		if msg, ok := userMessages[code]; ok {
			return msg
		}
	}

	// Heuristic fallback on the raw provider message.
	raw := strings.ToLower(err.Error())
	switch {
	case strings.Contains(raw, "password"):
		return "There is a problem with the password you entered."
	case strings.Contains(raw, "email"):
		return "There is a problem with the email address you entered."
	case strings.Contains(raw, "network"), strings.Contains(raw, "timeout"):
		return userMessages[provider.CodeNetworkFailure]
	}

	return genericUserMessage
}

// nonRetryableCodes lists provider errors that retrying cannot fix; the
// retry loop is skipped entirely for these.
var nonRetryableCodes = map[string]bool{
	provider.CodeUserNotFound:        true,
	provider.CodeWrongPassword:       true,
	provider.CodeInvalidCredential:   true,
	provider.CodeEmailInUse:          true,
	provider.CodeWeakPassword:        true,
	provider.CodeInvalidEmail:        true,
	provider.CodeUserDisabled:        true,
	provider.CodeTooManyRequests:     true,
	provider.CodeExpiredActionCode:   true,
	provider.CodeInvalidActionCode:   true,
	provider.CodeOperationNotAllowed: true,
}

func isRetryable(err error) bool {
	code := provider.ErrorCode(err)
	if code == "" {
		return true
	}
	return !nonRetryableCodes[code]
}
