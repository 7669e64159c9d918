// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/taibuivan/marketplace/internal/users/profile"
)

const (
	// googleUserInfoURL serves the OpenID Connect userinfo document.
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	// providerHTTPTimeout bounds every round-trip to the identity provider.
	providerHTTPTimeout = 10 * time.Second

	// maxUserInfoBytes caps the userinfo document we are willing to read.
	maxUserInfoBytes = 1 << 16
)

// ErrProviderExchange is returned when the provider rejects the authorization code.
var ErrProviderExchange = errors.New("auth: identity provider exchange failed")

// IdentityProvider is a federated login source driven by the OAuth2 code flow.
type IdentityProvider interface {
	// Name is stored as the profile's auth provider.
	Name() string

	// AuthCodeURL returns the consent page URL carrying the given state.
	AuthCodeURL(state string) string

	// Identify exchanges the authorization code and returns the asserted identity.
	Identify(ctx context.Context, code string) (*FederatedIdentity, error)
}

// GoogleProvider implements [IdentityProvider] for Google accounts.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// GoogleOption customises a [GoogleProvider].
type GoogleOption func(*GoogleProvider)

// WithGoogleEndpoint overrides the OAuth2 endpoints and the userinfo URL.
func WithGoogleEndpoint(endpoint oauth2.Endpoint, userInfoURL string) GoogleOption {
	return func(provider *GoogleProvider) {
		provider.config.Endpoint = endpoint
		provider.userInfoURL = userInfoURL
	}
}

// WithGoogleHTTPClient replaces the HTTP client used for the exchange and userinfo calls.
func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(provider *GoogleProvider) {
		provider.httpClient = client
	}
}

/*
NewGoogleProvider creates a Google identity provider.

Parameters:
  - clientID: string
  - clientSecret: string
  - redirectURL: string (the absolute callback URL registered with Google)
*/
func NewGoogleProvider(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *GoogleProvider {
	provider := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
		httpClient:  &http.Client{Timeout: providerHTTPTimeout},
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// Name implements [IdentityProvider].
func (provider *GoogleProvider) Name() string {
	return profile.ProviderGoogle
}

// AuthCodeURL implements [IdentityProvider].
func (provider *GoogleProvider) AuthCodeURL(state string) string {
	return provider.config.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// googleUserInfo is the subset of the OpenID userinfo document we read.
type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

/*
Identify exchanges the code for a token and fetches the userinfo document.

Parameters:
  - ctx: context.Context
  - code: string (from the callback query)

Returns:
  - *FederatedIdentity: The asserted identity
  - error: ErrProviderExchange or transport failures
*/
func (provider *GoogleProvider) Identify(ctx context.Context, code string) (*FederatedIdentity, error) {

	// oauth2 picks the HTTP client up from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, provider.httpClient)

	// ── 1. Code Exchange ──────────────────────────────────────────────────
	token, err := provider.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderExchange, err)
	}

	// ── 2. Userinfo ───────────────────────────────────────────────────────
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth_google_userinfo_request_failed: %w", err)
	}

	response, err := provider.config.Client(ctx, token).Do(request)
	if err != nil {
		return nil, fmt.Errorf("auth_google_userinfo_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth_google_userinfo_failed: unexpected status %d", response.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(response.Body, maxUserInfoBytes)).Decode(&info); err != nil {
		return nil, fmt.Errorf("auth_google_userinfo_decode_failed: %w", err)
	}

	return &FederatedIdentity{
		Provider:      provider.Name(),
		Subject:       info.Sub,
		Email:         info.Email,
		Name:          info.Name,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
		Picture:       info.Picture,
		EmailVerified: info.EmailVerified,
	}, nil
}
