// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/taibuivan/marketplace/internal/users/auth"
	"github.com/taibuivan/marketplace/internal/users/profile"
)

// fakeGoogle serves the token and userinfo endpoints.
type fakeGoogle struct {
	server     *httptest.Server
	userInfo   map[string]any
	userStatus int
}

// acceptedCode is the only authorization code the fake token endpoint redeems.
const acceptedCode = "code-1"

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()

	fake := &fakeGoogle{
		userStatus: http.StatusOK,
		userInfo: map[string]any{
			"sub":            "google-sub-1",
			"email":          "Ana@Example.com",
			"email_verified": true,
			"name":           "Ana Lopez",
			"given_name":     "Ana",
			"family_name":    "Lopez",
			"picture":        "https://lh3.example.com/ana.png",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(writer http.ResponseWriter, request *http.Request) {
		_ = request.ParseForm()

		writer.Header().Set("Content-Type", "application/json")
		if request.PostForm.Get("code") != acceptedCode || request.PostForm.Get("client_id") != "client-1" {
			writer.WriteHeader(http.StatusBadRequest)
			_, _ = writer.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = writer.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer access-1" {
			writer.WriteHeader(http.StatusUnauthorized)
			return
		}
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(fake.userStatus)
		_ = json.NewEncoder(writer).Encode(fake.userInfo)
	})

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func (fake *fakeGoogle) provider() *auth.GoogleProvider {
	return auth.NewGoogleProvider("client-1", "secret-1", "https://api.example.com/auth/google/callback",
		auth.WithGoogleEndpoint(oauth2.Endpoint{
			AuthURL:   fake.server.URL + "/auth",
			TokenURL:  fake.server.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}, fake.server.URL+"/userinfo"),
		auth.WithGoogleHTTPClient(fake.server.Client()),
	)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	provider := auth.NewGoogleProvider("client-1", "secret-1", "https://api.example.com/auth/google/callback")

	parsed, err := url.Parse(provider.AuthCodeURL("state-xyz"))
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", parsed.Host)
	query := parsed.Query()
	assert.Equal(t, "state-xyz", query.Get("state"))
	assert.Equal(t, "client-1", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "openid email profile", query.Get("scope"))
	assert.Equal(t, "select_account", query.Get("prompt"))
	assert.Equal(t, "https://api.example.com/auth/google/callback", query.Get("redirect_uri"))
	assert.Equal(t, profile.ProviderGoogle, provider.Name())
}

func TestGoogleProvider_Identify(t *testing.T) {
	fake := newFakeGoogle(t)

	identity, err := fake.provider().Identify(context.Background(), acceptedCode)
	require.NoError(t, err)

	assert.Equal(t, profile.ProviderGoogle, identity.Provider)
	assert.Equal(t, "google-sub-1", identity.Subject)
	assert.Equal(t, "Ana@Example.com", identity.Email)
	assert.Equal(t, "Ana Lopez", identity.Name)
	assert.Equal(t, "Ana", identity.GivenName)
	assert.Equal(t, "Lopez", identity.FamilyName)
	assert.Equal(t, "https://lh3.example.com/ana.png", identity.Picture)
	require.NotNil(t, identity.EmailVerified)
	assert.True(t, *identity.EmailVerified)
}

func TestGoogleProvider_UnstatedVerification(t *testing.T) {
	fake := newFakeGoogle(t)
	delete(fake.userInfo, "email_verified")

	identity, err := fake.provider().Identify(context.Background(), acceptedCode)
	require.NoError(t, err)
	assert.Nil(t, identity.EmailVerified)
}

func TestGoogleProvider_ExchangeRejected(t *testing.T) {
	fake := newFakeGoogle(t)

	_, err := fake.provider().Identify(context.Background(), "bad-code")
	assert.ErrorIs(t, err, auth.ErrProviderExchange)
}

func TestGoogleProvider_UserInfoFailure(t *testing.T) {
	fake := newFakeGoogle(t)
	fake.userStatus = http.StatusInternalServerError

	_, err := fake.provider().Identify(context.Background(), acceptedCode)
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrProviderExchange)
}
