package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/omprakash24d/mockify-auth/internal/auditlog"
	"github.com/omprakash24d/mockify-auth/internal/models"
	"github.com/omprakash24d/mockify-auth/internal/provider"
	"github.com/omprakash24d/mockify-auth/internal/security"
	pkgauth "github.com/omprakash24d/mockify-auth/pkg/auth"
)

const (
	maxProviderAttempts  = 3
	initialRetryInterval = 1 * time.Second
)

// AuthService orchestrates the hardening layers around the identity
// provider: lockout and rate-limit pre-checks, CSRF consumption, bounded
// retry around provider calls, attempt recording, audit logging and session
// lifecycle. Within one attempt the order is strict: lockout check, strength
// check, provider call, record attempt, log.
type AuthService struct {
	idp      provider.IdentityProvider
	google   *provider.GoogleAuthenticator
	lockout  *security.LockoutTracker
	limiter  *security.RateLimiter
	csrf     *security.CSRFTokenManager
	sessions *security.SessionManager
	authLog  *auditlog.AuthLogger
	logger   *slog.Logger
}

// NewAuthService wires the orchestrator. google may be nil when Google
// sign-in is not configured.
func NewAuthService(
	idp provider.IdentityProvider,
	google *provider.GoogleAuthenticator,
	lockout *security.LockoutTracker,
	limiter *security.RateLimiter,
	csrf *security.CSRFTokenManager,
	sessions *security.SessionManager,
	authLog *auditlog.AuthLogger,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		idp:      idp,
		google:   google,
		lockout:  lockout,
		limiter:  limiter,
		csrf:     csrf,
		sessions: sessions,
		authLog:  authLog,
		logger:   logger,
	}
}

// AuthInput carries the request context every auth operation needs.
type AuthInput struct {
	Email     string
	Password  string
	CSRFToken string
	IPAddress string
	UserAgent string
}

// AuthResult is the outcome of a successful sign-in or sign-up.
type AuthResult struct {
	Account models.ProviderAccount `json:"account"`
	Session *models.Session        `json:"session"`
}

// Login authenticates the user against the provider after the local
// hardening checks pass.
func (s *AuthService) Login(ctx context.Context, input AuthInput) (*AuthResult, error) {
	email := security.SanitizeInput(strings.ToLower(strings.TrimSpace(input.Email)))
	if email == "" {
		return nil, models.ErrBadRequest
	}

	if !s.csrf.ValidateToken(input.CSRFToken) {
		s.authLog.LogFailure(ctx, "login", email, "csrf", "csrf token rejected", input.UserAgent)
		return nil, models.ErrInvalidCSRFToken
	}

	locked, err := s.lockout.IsLocked(ctx, email)
	if err == nil && locked {
		remaining, _ := s.lockout.RemainingLockout(ctx, email)
		s.authLog.LogFailure(ctx, "login", email, "lockout", "account locked", input.UserAgent)
		return nil, fmt.Errorf("%w: retry in %s", models.ErrAccountLocked, remaining.Round(time.Second))
	}

	if !s.limiter.Allow(security.ScopeLogin, email) {
		s.authLog.LogFailure(ctx, "login", email, "rate_limit", "login rate limit exceeded", input.UserAgent)
		return nil, models.ErrRateLimitExceeded
	}

	var cred *provider.Credential
	err = s.retryProvider(ctx, func() error {
		var callErr error
		cred, callErr = s.idp.SignInWithPassword(ctx, email, input.Password)
		return callErr
	})

	if err != nil {
		if _, recordErr := s.lockout.RecordAttempt(ctx, email, false, input.IPAddress, input.UserAgent); recordErr != nil {
			s.logger.Error("failed to record failed attempt", slog.Any("error", recordErr))
		}
		s.authLog.LogFailure(ctx, "login", email, provider.ErrorCode(err), err.Error(), input.UserAgent)
		return nil, err
	}

	if _, err := s.lockout.RecordAttempt(ctx, email, true, input.IPAddress, input.UserAgent); err != nil {
		s.logger.Error("failed to record successful attempt", slog.Any("error", err))
	}

	session, err := s.startSession(ctx, &cred.Account, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.authLog.LogSuccess(ctx, "login", email, session.SessionID, input.UserAgent)
	return &AuthResult{Account: cred.Account, Session: session}, nil
}

// SignUp registers a new account. Password strength is enforced locally
// before the provider is consulted; the signup rate limit keys on client IP
// since the email does not exist yet.
func (s *AuthService) SignUp(ctx context.Context, input AuthInput, displayName string) (*AuthResult, error) {
	email := security.SanitizeInput(strings.ToLower(strings.TrimSpace(input.Email)))
	displayName = security.SanitizeInput(displayName)
	if email == "" {
		return nil, models.ErrBadRequest
	}

	if !s.csrf.ValidateToken(input.CSRFToken) {
		s.authLog.LogFailure(ctx, "signup", email, "csrf", "csrf token rejected", input.UserAgent)
		return nil, models.ErrInvalidCSRFToken
	}

	if strength := pkgauth.ValidateStrength(input.Password); !strength.IsValid {
		s.authLog.LogFailure(ctx, "signup", email, "weak_password", strings.Join(strength.Errors, "; "), input.UserAgent)
		return nil, fmt.Errorf("%w: %s", models.ErrWeakPassword, strength.Errors[0])
	}

	if !s.limiter.Allow(security.ScopeSignup, input.IPAddress) {
		s.authLog.LogFailure(ctx, "signup", email, "rate_limit", "signup rate limit exceeded", input.UserAgent)
		return nil, models.ErrRateLimitExceeded
	}

	var cred *provider.Credential
	err := s.retryProvider(ctx, func() error {
		var callErr error
		cred, callErr = s.idp.SignUp(ctx, email, input.Password, displayName)
		return callErr
	})
	if err != nil {
		s.authLog.LogFailure(ctx, "signup", email, provider.ErrorCode(err), err.Error(), input.UserAgent)
		return nil, err
	}

	// Verification email delivery is best-effort; the account exists either way.
	if err := s.idp.SendEmailVerification(ctx, cred.IDToken); err != nil {
		s.logger.Warn("failed to send verification email", slog.Any("error", err))
	}

	session, err := s.startSession(ctx, &cred.Account, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.authLog.LogSuccess(ctx, "signup", email, session.SessionID, input.UserAgent)
	return &AuthResult{Account: cred.Account, Session: session}, nil
}

// RequestPasswordReset asks the provider to email a reset link. The reset
// scope carries the strictest rate limit.
func (s *AuthService) RequestPasswordReset(ctx context.Context, input AuthInput) error {
	email := security.SanitizeInput(strings.ToLower(strings.TrimSpace(input.Email)))
	if email == "" {
		return models.ErrBadRequest
	}

	if !s.limiter.Allow(security.ScopeReset, email) {
		s.authLog.LogFailure(ctx, "password_reset", email, "rate_limit", "reset rate limit exceeded", input.UserAgent)
		return models.ErrRateLimitExceeded
	}

	err := s.retryProvider(ctx, func() error {
		return s.idp.SendPasswordReset(ctx, email)
	})
	if err != nil {
		s.authLog.LogFailure(ctx, "password_reset", email, provider.ErrorCode(err), err.Error(), input.UserAgent)
		return err
	}

	s.authLog.LogSuccess(ctx, "password_reset", email, "", input.UserAgent)
	return nil
}

// ConfirmPasswordReset applies a new password using the emailed action code.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword, userAgent string) error {
	if strength := pkgauth.ValidateStrength(newPassword); !strength.IsValid {
		return fmt.Errorf("%w: %s", models.ErrWeakPassword, strength.Errors[0])
	}

	err := s.retryProvider(ctx, func() error {
		return s.idp.ConfirmPasswordReset(ctx, oobCode, newPassword)
	})
	if err != nil {
		s.authLog.LogFailure(ctx, "password_reset_confirm", "unknown", provider.ErrorCode(err), err.Error(), userAgent)
		return err
	}

	s.authLog.LogSuccess(ctx, "password_reset_confirm", "unknown", "", userAgent)
	return nil
}

// BeginGoogleSignIn starts the two-phase redirect handoff and returns the
// consent URL.
func (s *AuthService) BeginGoogleSignIn(ctx context.Context, returnTo string) (string, error) {
	if s.google == nil || !s.google.Configured() {
		return "", models.ErrBadRequest
	}
	return s.google.Begin(ctx, returnTo)
}

// CompleteGoogleSignIn resolves a return-from-redirect: the pending marker
// is consumed, the code exchanged and a session started.
func (s *AuthService) CompleteGoogleSignIn(ctx context.Context, state, code, userAgent string) (*AuthResult, string, error) {
	if s.google == nil {
		return nil, "", models.ErrBadRequest
	}

	cred, returnTo, err := s.google.Resume(ctx, state, code)
	if err != nil {
		s.authLog.LogFailure(ctx, "google_signin", "unknown", provider.ErrorCode(err), err.Error(), userAgent)
		return nil, "", err
	}

	if _, err := s.lockout.RecordAttempt(ctx, cred.Account.Email, true, "", userAgent); err != nil {
		s.logger.Error("failed to record google sign-in attempt", slog.Any("error", err))
	}

	session, err := s.startSession(ctx, &cred.Account, userAgent)
	if err != nil {
		return nil, "", err
	}

	s.authLog.LogSuccess(ctx, "google_signin", cred.Account.Email, session.SessionID, userAgent)
	return &AuthResult{Account: cred.Account, Session: session}, returnTo, nil
}

// ValidateSession refreshes and returns the user's session, enforcing the
// hijack heuristic: a flagged session is destroyed and must re-authenticate.
func (s *AuthService) ValidateSession(ctx context.Context, userID, userAgent string) (*models.Session, error) {
	session, err := s.sessions.Validate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if security.DetectSessionHijack(session, userAgent, time.Now(), s.logger) {
		s.authLog.LogWarning(ctx, "session_hijack_suspected", session.Email, "session flagged and destroyed")
		if err := s.sessions.Destroy(ctx, userID); err != nil {
			s.logger.Warn("failed to destroy flagged session", slog.Any("error", err))
		}
		return nil, models.ErrUnauthorized
	}

	return session, nil
}

// Logout ends one user's session.
func (s *AuthService) Logout(ctx context.Context, userID, userAgent string) error {
	session, err := s.sessions.Validate(ctx, userID)
	if err != nil {
		// Already gone; logout is idempotent.
		return nil
	}

	if err := s.sessions.Destroy(ctx, userID); err != nil {
		return err
	}

	s.authLog.LogSuccess(ctx, "logout", session.Email, session.SessionID, userAgent)
	return nil
}

// SecureLogout signs out of the provider and clears all sessions and CSRF
// tokens. Rate-limit state is deliberately left intact.
func (s *AuthService) SecureLogout(ctx context.Context) error {
	if err := s.idp.SignOut(ctx, ""); err != nil {
		return err
	}

	s.sessions.DestroyAll(ctx)
	s.csrf.Clear()

	s.authLog.LogSuccess(ctx, "secure_logout", "unknown", "", "")
	return nil
}

// IssueCSRFToken mints a token for the next form submission.
func (s *AuthService) IssueCSRFToken() (string, error) {
	return s.csrf.GenerateToken()
}

func (s *AuthService) startSession(ctx context.Context, account *models.ProviderAccount, userAgent string) (*models.Session, error) {
	csrfToken, err := s.csrf.GenerateToken()
	if err != nil {
		s.logger.Error("failed to generate session csrf token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return s.sessions.Create(ctx, account, userAgent, csrfToken)
}

// retryProvider runs a provider call with bounded exponential backoff:
// at most three attempts starting at one second. Errors whose canonical code
// cannot be fixed by retrying abort immediately.
func (s *AuthService) retryProvider(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialRetryInterval

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		s.logger.Warn("provider call failed, retrying", slog.Any("error", err))
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, maxProviderAttempts-1), ctx))
}
