package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/omprakash24d/mockify-auth/internal/storage"
)

const (
	redirectKeyPrefix = "mockify_oauth_redirect:"
	redirectMarkerTTL = 10 * time.Minute
)

// Redirect handoff states. A marker is written when the user is sent to the
// consent screen and consumed when they return, so the callback can tell a
// genuine return-from-redirect apart from a fresh or replayed visit.
const (
	RedirectStatePending  = "redirect_pending"
	RedirectStateResolved = "resolved"
)

// ErrNoPendingRedirect is returned when a callback arrives without a
// matching marker (fresh visit, expired marker, or replay).
var ErrNoPendingRedirect = errors.New("no pending oauth redirect for state")

type redirectMarker struct {
	State     string    `json:"state"`
	ReturnTo  string    `json:"returnTo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GoogleAuthenticator drives the Google OAuth authorization-code flow in two
// phases across the redirect boundary, with the pending leg persisted
// durably.
type GoogleAuthenticator struct {
	oauth    *oauth2.Config
	store    storage.SnapshotStore
	provider IdentityProvider
	logger   *slog.Logger
}

// NewGoogleAuthenticator wires the code flow against the given identity
// provider. The provider performs the final ID-token sign-in.
func NewGoogleAuthenticator(clientID, clientSecret, redirectURL string, store storage.SnapshotStore, idp IdentityProvider, logger *slog.Logger) *GoogleAuthenticator {
	return &GoogleAuthenticator{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
		store:    store,
		provider: idp,
		logger:   logger,
	}
}

// Configured reports whether Google sign-in is usable.
func (g *GoogleAuthenticator) Configured() bool {
	return g.oauth.ClientID != "" && g.oauth.ClientSecret != ""
}

// Begin starts the redirect leg: a fresh state value is persisted as a
// pending marker and the consent URL is returned for the client to follow.
func (g *GoogleAuthenticator) Begin(ctx context.Context, returnTo string) (string, error) {
	state := uuid.NewString()

	marker := redirectMarker{
		State:     RedirectStatePending,
		ReturnTo:  returnTo,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(marker)
	if err != nil {
		return "", fmt.Errorf("marshal redirect marker: %w", err)
	}

	if err := g.store.Set(ctx, redirectKeyPrefix+state, string(raw), redirectMarkerTTL); err != nil {
		return "", fmt.Errorf("persist redirect marker: %w", err)
	}

	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Resume completes the flow when the user returns from the consent screen.
// The marker for the state is consumed (single use), the code is exchanged,
// and the resulting Google ID token is signed in against the provider.
// Returns the return-to hint recorded at Begin alongside the credential.
func (g *GoogleAuthenticator) Resume(ctx context.Context, state, code string) (*Credential, string, error) {
	raw, err := g.store.Get(ctx, redirectKeyPrefix+state)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, "", ErrNoPendingRedirect
		}
		return nil, "", err
	}

	var marker redirectMarker
	if err := json.Unmarshal([]byte(raw), &marker); err != nil || marker.State != RedirectStatePending {
		_ = g.store.Delete(ctx, redirectKeyPrefix+state)
		return nil, "", ErrNoPendingRedirect
	}

	// Consume before the exchange so a failed exchange cannot be replayed.
	if err := g.store.Delete(ctx, redirectKeyPrefix+state); err != nil {
		g.logger.Warn("failed to consume oauth redirect marker", slog.Any("error", err))
	}

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", &Error{Code: CodeNetworkFailure, Message: fmt.Sprintf("oauth code exchange failed: %v", err)}
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return nil, "", &Error{Code: CodeInternal, Message: "oauth token response missing id_token"}
	}

	cred, err := g.provider.SignInWithGoogleIDToken(ctx, idToken)
	if err != nil {
		return nil, "", err
	}
	return cred, marker.ReturnTo, nil
}
