package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omprakash24d/mockify-auth/internal/models"
)

// Canonical provider error codes. These are the identifiers the error
// mapping and the retry policy key on, independent of the provider's wire
// format.
const (
	CodeUserNotFound        = "auth/user-not-found"
	CodeWrongPassword       = "auth/wrong-password"
	CodeInvalidCredential   = "auth/invalid-credential"
	CodeEmailInUse          = "auth/email-already-in-use"
	CodeWeakPassword        = "auth/weak-password"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeUserDisabled        = "auth/user-disabled"
	CodeTooManyRequests     = "auth/too-many-requests"
	CodeExpiredActionCode   = "auth/expired-action-code"
	CodeInvalidActionCode   = "auth/invalid-action-code"
	CodeOperationNotAllowed = "auth/operation-not-allowed"
	CodeNetworkFailure      = "auth/network-request-failed"
	CodeInternal            = "auth/internal-error"
)

// Error is a typed identity-provider failure carrying a canonical code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode extracts the canonical code from an error chain, or empty string.
func ErrorCode(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// Credential is the result of a successful provider call: the account plus
// the provider-issued tokens.
type Credential struct {
	Account      models.ProviderAccount
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// IdentityProvider is the vendor identity API the gateway fronts. All calls
// are opaque network operations returning either a credential or a typed
// *Error.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Credential, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Credential, error)
	SignInWithGoogleIDToken(ctx context.Context, googleIDToken string) (*Credential, error)
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error
	SendEmailVerification(ctx context.Context, idToken string) error
	SignOut(ctx context.Context, idToken string) error
}
