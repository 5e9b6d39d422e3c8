package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/omprakash24d/mockify-auth/internal/models"
	"github.com/omprakash24d/mockify-auth/internal/provider"
	"github.com/omprakash24d/mockify-auth/internal/services"
	pkghttp "github.com/omprakash24d/mockify-auth/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, input services.AuthInput) (*services.AuthResult, error)
	SignUp(ctx context.Context, input services.AuthInput, displayName string) (*services.AuthResult, error)
	RequestPasswordReset(ctx context.Context, input services.AuthInput) error
	ConfirmPasswordReset(ctx context.Context, oobCode, newPassword, userAgent string) error
	BeginGoogleSignIn(ctx context.Context, returnTo string) (string, error)
	CompleteGoogleSignIn(ctx context.Context, state, code, userAgent string) (*services.AuthResult, string, error)
	ValidateSession(ctx context.Context, userID, userAgent string) (*models.Session, error)
	Logout(ctx context.Context, userID, userAgent string) error
	SecureLogout(ctx context.Context) error
	IssueCSRFToken() (string, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest represents the request body for account creation
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

// PasswordResetRequest represents the request body for a reset email
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest carries the emailed action code and the
// replacement password
type PasswordResetConfirmRequest struct {
	OobCode     string `json:"oobCode" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// CSRFTokenResponse represents the response for a freshly minted token
type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

func (h *AuthHandler) authInput(r *http.Request, email, password string) services.AuthInput {
	return services.AuthInput{
		Email:     email,
		Password:  password,
		CSRFToken: r.Header.Get("X-CSRF-Token"),
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}
}

// Login handles user login
// @Summary User login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.AuthResult
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), h.authInput(r, req.Email, req.Password))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// SignUp handles account creation
// @Summary User signup
// @Accept json
// @Param request body SignUpRequest true "Signup request"
// @Produce json
// @Success 201 {object} services.AuthResult
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 409 {object} pkghttp.ErrorResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.SignUp(r.Context(), h.authInput(r, req.Email, req.Password), req.DisplayName)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, result)
}

// RequestPasswordReset sends a password reset email
// @Summary Request password reset
// @Accept json
// @Param request body PasswordResetRequest true "Reset request"
// @Produce json
// @Success 202 {object} map[string]string
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.RequestPasswordReset(r.Context(), h.authInput(r, req.Email, ""))
	if err != nil {
		if errors.Is(err, models.ErrRateLimitExceeded) {
			pkghttp.WriteTooManyRequests(w, services.UserMessage(err))
			return
		}
		// Identical response whether or not the address exists
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "If the email is registered, a password reset link has been sent.",
	})
}

// ConfirmPasswordReset applies a new password using the emailed action code
// @Summary Confirm password reset
// @Accept json
// @Param request body PasswordResetConfirmRequest true "Confirm request"
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} pkghttp.ErrorResponse
// @Router /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), req.OobCode, req.NewPassword, r.Header.Get("User-Agent")); err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password has been reset. You can now sign in.",
	})
}

// GoogleStart begins the Google sign-in redirect handoff
// @Summary Start Google sign-in
// @Param return_to query string false "Path to return to after sign-in"
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/google/start [get]
func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.Query().Get("return_to")
	// Only relative paths may round-trip through the redirect marker
	if returnTo != "" {
		if u, err := url.Parse(returnTo); err != nil || u.IsAbs() || u.Host != "" {
			pkghttp.WriteBadRequest(w, "return_to must be a relative path")
			return
		}
	}

	consentURL, err := h.service.BeginGoogleSignIn(r.Context(), returnTo)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"url": consentURL})
}

// GoogleCallback completes a return from the Google consent screen
// @Summary Complete Google sign-in
// @Param state query string true "Opaque state from the consent redirect"
// @Param code query string true "Authorization code"
// @Produce json
// @Success 200 {object} services.AuthResult
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		pkghttp.WriteBadRequest(w, "state and code are required")
		return
	}

	result, returnTo, err := h.service.CompleteGoogleSignIn(r.Context(), state, code, r.Header.Get("User-Agent"))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	if returnTo != "" {
		w.Header().Set("X-Return-To", returnTo)
	}
	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// ValidateSession refreshes and returns the caller's session
// @Summary Validate session
// @Produce json
// @Success 200 {object} models.Session
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /auth/session [get]
func (h *AuthHandler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		pkghttp.WriteUnauthorized(w, "Missing user identity")
		return
	}

	session, err := h.service.ValidateSession(r.Context(), userID, r.Header.Get("User-Agent"))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, session)
}

// Logout ends the caller's session
// @Summary Logout
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		pkghttp.WriteUnauthorized(w, "Missing user identity")
		return
	}

	if err := h.service.Logout(r.Context(), userID, r.Header.Get("User-Agent")); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// SecureLogout signs out of the provider and clears all local auth state
// @Summary Secure logout
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/secure-logout [post]
func (h *AuthHandler) SecureLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SecureLogout(r.Context()); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// IssueCSRFToken mints a single-use token for the next auth form submission
// @Summary Issue CSRF token
// @Produce json
// @Success 200 {object} CSRFTokenResponse
// @Router /auth/csrf [get]
func (h *AuthHandler) IssueCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.IssueCSRFToken()
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, CSRFTokenResponse{CSRFToken: token})
}

// writeAuthError maps service errors to HTTP responses without leaking
// which check tripped beyond what the user message already says.
func writeAuthError(w http.ResponseWriter, err error) {
	msg := services.UserMessage(err)
	switch {
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrWeakPassword):
		pkghttp.WriteBadRequest(w, msg)
	case errors.Is(err, models.ErrInvalidCSRFToken):
		pkghttp.WriteForbidden(w, msg)
	case errors.Is(err, models.ErrAccountLocked), errors.Is(err, models.ErrRateLimitExceeded):
		pkghttp.WriteTooManyRequests(w, msg)
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrSessionExpired),
		errors.Is(err, models.ErrSessionNotFound):
		pkghttp.WriteUnauthorized(w, msg)
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, msg)
	default:
		if code := providerStatus(err); code != 0 {
			pkghttp.WriteError(w, code, "auth_error", msg)
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// providerStatus maps canonical provider codes onto HTTP statuses. Zero
// means the code carries no HTTP meaning.
func providerStatus(err error) int {
	switch provider.ErrorCode(err) {
	case provider.CodeUserNotFound, provider.CodeWrongPassword, provider.CodeInvalidCredential, provider.CodeUserDisabled:
		return http.StatusUnauthorized
	case provider.CodeEmailInUse:
		return http.StatusConflict
	case provider.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case provider.CodeWeakPassword, provider.CodeInvalidEmail, provider.CodeExpiredActionCode, provider.CodeInvalidActionCode:
		return http.StatusBadRequest
	case provider.CodeNetworkFailure:
		return http.StatusBadGateway
	default:
		return 0
	}
}
