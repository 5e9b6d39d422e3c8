package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/omprakash24d/mockify-auth/internal/models"
)

// wire error codes returned by the identitytoolkit REST API mapped to
// canonical codes. Codes carrying trailing detail (e.g. "WEAK_PASSWORD :
// Password should be ...") match on prefix.
var wireCodes = map[string]string{
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   CodeInvalidCredential,
	"EMAIL_EXISTS":                CodeEmailInUse,
	"WEAK_PASSWORD":               CodeWeakPassword,
	"INVALID_EMAIL":               CodeInvalidEmail,
	"MISSING_EMAIL":               CodeInvalidEmail,
	"USER_DISABLED":               CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
	"EXPIRED_OOB_CODE":            CodeExpiredActionCode,
	"INVALID_OOB_CODE":            CodeInvalidActionCode,
	"OPERATION_NOT_ALLOWED":       CodeOperationNotAllowed,
}

// FirebaseClient talks to the Firebase Auth (identitytoolkit) REST API.
type FirebaseClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFirebaseClient creates a client for the given project API key.
func NewFirebaseClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *FirebaseClient {
	return &FirebaseClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type authPayload struct {
	Email             string `json:"email,omitempty"`
	Password          string `json:"password,omitempty"`
	DisplayName       string `json:"displayName,omitempty"`
	IDToken           string `json:"idToken,omitempty"`
	OOBCode           string `json:"oobCode,omitempty"`
	NewPassword       string `json:"newPassword,omitempty"`
	RequestType       string `json:"requestType,omitempty"`
	PostBody          string `json:"postBody,omitempty"`
	RequestURI        string `json:"requestUri,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken,omitempty"`
}

type authResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *FirebaseClient) SignInWithPassword(ctx context.Context, email, password string) (*Credential, error) {
	var resp authResponse
	err := c.post(ctx, "accounts:signInWithPassword", authPayload{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.credentialFrom(&resp), nil
}

func (c *FirebaseClient) SignUp(ctx context.Context, email, password, displayName string) (*Credential, error) {
	var resp authResponse
	err := c.post(ctx, "accounts:signUp", authPayload{
		Email:             email,
		Password:          password,
		DisplayName:       displayName,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.credentialFrom(&resp), nil
}

func (c *FirebaseClient) SignInWithGoogleIDToken(ctx context.Context, googleIDToken string) (*Credential, error) {
	postBody := url.Values{}
	postBody.Set("id_token", googleIDToken)
	postBody.Set("providerId", "google.com")

	var resp authResponse
	err := c.post(ctx, "accounts:signInWithIdp", authPayload{
		PostBody:          postBody.Encode(),
		RequestURI:        "http://localhost",
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	cred := c.credentialFrom(&resp)

	// The IdP response can omit profile fields; fall back to the Google ID
	// token claims.
	if cred.Account.Email == "" || cred.Account.DisplayName == "" {
		if claims := parseIDTokenClaims(googleIDToken); claims != nil {
			if cred.Account.Email == "" {
				cred.Account.Email = claims.Email
			}
			if cred.Account.DisplayName == "" {
				cred.Account.DisplayName = claims.Name
			}
			if !cred.Account.EmailVerified {
				cred.Account.EmailVerified = claims.EmailVerified
			}
		}
	}

	return cred, nil
}

func (c *FirebaseClient) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "accounts:sendOobCode", authPayload{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}, &authResponse{})
}

func (c *FirebaseClient) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	return c.post(ctx, "accounts:resetPassword", authPayload{
		OOBCode:     oobCode,
		NewPassword: newPassword,
	}, &authResponse{})
}

func (c *FirebaseClient) SendEmailVerification(ctx context.Context, idToken string) error {
	return c.post(ctx, "accounts:sendOobCode", authPayload{
		RequestType: "VERIFY_EMAIL",
		IDToken:     idToken,
	}, &authResponse{})
}

// SignOut is a no-op against the REST API; the provider has no server-side
// sign-out for password sessions. Kept on the interface so the orchestrator
// treats logout as a provider suspension point.
func (c *FirebaseClient) SignOut(_ context.Context, _ string) error {
	return nil
}

func (c *FirebaseClient) credentialFrom(resp *authResponse) *Credential {
	cred := &Credential{
		Account: models.ProviderAccount{
			UID:           resp.LocalID,
			Email:         strings.ToLower(resp.Email),
			DisplayName:   resp.DisplayName,
			EmailVerified: resp.EmailVerified,
		},
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}
	if secs, err := strconv.Atoi(resp.ExpiresIn); err == nil {
		cred.ExpiresIn = time.Duration(secs) * time.Second
	}
	return cred
}

func (c *FirebaseClient) post(ctx context.Context, endpoint string, payload authPayload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Code: CodeInternal, Message: err.Error()}
	}

	reqURL := fmt.Sprintf("%s/%s?key=%s", c.baseURL, endpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return &Error{Code: CodeInternal, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Code: CodeNetworkFailure, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return &Error{Code: CodeInternal, Message: fmt.Sprintf("provider returned status %d", resp.StatusCode)}
		}
		return mapWireError(errResp.Error.Message)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Code: CodeInternal, Message: fmt.Sprintf("failed to decode provider response: %v", err)}
	}
	return nil
}

func mapWireError(wireMessage string) *Error {
	// Strip trailing detail: "WEAK_PASSWORD : Password should be at least..."
	code := wireMessage
	if idx := strings.IndexAny(code, " :"); idx > 0 {
		code = code[:idx]
	}

	if canonical, ok := wireCodes[code]; ok {
		return &Error{Code: canonical, Message: wireMessage}
	}
	return &Error{Code: CodeInternal, Message: wireMessage}
}

// idTokenClaims are the profile claims read from a Google ID token.
type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// parseIDTokenClaims reads claims without verifying the signature; the token
// was just accepted by the provider, which is the trust anchor here.
func parseIDTokenClaims(idToken string) *idTokenClaims {
	claims := &idTokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return nil
	}
	return claims
}
