// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/marketplace/internal/platform/constants"
	"github.com/taibuivan/marketplace/internal/platform/middleware"
	"github.com/taibuivan/marketplace/internal/platform/respond"
	"github.com/taibuivan/marketplace/internal/users/auth"
	"github.com/taibuivan/marketplace/internal/users/profile"
)

const testAppURL = "https://app.example.com"

// stubProvider redeems exactly one code into a fixed identity.
type stubProvider struct {
	identity auth.FederatedIdentity
}

func (p *stubProvider) Name() string { return profile.ProviderGoogle }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/consent?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Identify(_ context.Context, code string) (*auth.FederatedIdentity, error) {
	if code != "good-code" {
		return nil, auth.ErrProviderExchange
	}
	identity := p.identity
	return &identity, nil
}

type httpFixture struct {
	*fixture
	router   http.Handler
	redis    *miniredis.Miniredis
	provider *stubProvider
}

func newHTTPFixture(t *testing.T, withProvider bool) *httpFixture {
	t.Helper()

	base := newFixture(t)
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	provider := &stubProvider{identity: googleIdentity()}
	var identityProvider auth.IdentityProvider
	if withProvider {
		identityProvider = provider
	}

	handler := auth.NewHandler(base.service, auth.NewOAuthStateRepository(client), identityProvider, auth.HandlerOptions{
		AppURL: testAppURL + "/",
	})

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(base.codec))
	router.Mount("/auth", handler.Routes())

	return &httpFixture{fixture: base, router: router, redis: server, provider: provider}
}

func (f *httpFixture) do(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func jsonRequest(method, target, body string) *http.Request {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	return request
}

func findCookie(recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) respond.ErrorEnvelope {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

type sessionBody struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
}

// # Password Endpoints

func TestHandler_Register(t *testing.T) {
	f := newHTTPFixture(t, false)
	body := `{"email":"A@X.com","password":"s3cret-pass","firstName":"Ana","lastName":"Lopez"}`

	recorder := f.do(jsonRequest(http.MethodPost, "/auth/register", body))
	require.Equal(t, http.StatusCreated, recorder.Code)

	var payload struct {
		Message string `json:"message"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, auth.MessageRegistered, payload.Message)
	assert.NotEmpty(t, payload.User.ID)
	assert.Equal(t, "a@x.com", payload.User.Email)
	assert.Equal(t, "Ana Lopez", payload.User.Name)
	assert.NotContains(t, recorder.Body.String(), "s3cret-pass")
	assert.NotContains(t, recorder.Body.String(), "$2a$")

	duplicate := f.do(jsonRequest(http.MethodPost, "/auth/register", body))
	assert.Equal(t, http.StatusBadRequest, duplicate.Code)
	assert.Equal(t, "User already exists with this email", decodeError(t, duplicate).Error)
}

func TestHandler_RegisterRejectsBadInput(t *testing.T) {
	f := newHTTPFixture(t, false)

	missing := f.do(jsonRequest(http.MethodPost, "/auth/register", `{"email":"a@x.com"}`))
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, auth.MessageMissingFields, decodeError(t, missing).Error)

	malformed := f.do(jsonRequest(http.MethodPost, "/auth/register", `{"email":`))
	assert.Equal(t, http.StatusBadRequest, malformed.Code)
}

func TestHandler_LoginSetsSessionCookie(t *testing.T) {
	f := newHTTPFixture(t, false)
	f.seedPassword(t, "ana@example.com", "s3cret-pass")

	recorder := f.do(jsonRequest(http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"s3cret-pass"}`))
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload sessionBody
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, "ana@example.com", payload.User.Email)
	assert.NotEmpty(t, payload.SessionToken)
	assert.NotEmpty(t, payload.ExpiresAt)

	cookie := findCookie(recorder, constants.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, payload.SessionToken, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, constants.SessionCookiePath, cookie.Path)
}

func TestHandler_LoginRejected(t *testing.T) {
	f := newHTTPFixture(t, false)
	f.seedPassword(t, "ana@example.com", "s3cret-pass")

	for _, body := range []string{
		`{"email":"ana@example.com","password":"wrong"}`,
		`{"email":"nobody@example.com","password":"s3cret-pass"}`,
		`{"email":"","password":""}`,
	} {
		recorder := f.do(jsonRequest(http.MethodPost, "/auth/login", body))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, body)
		assert.Equal(t, "Invalid credentials", decodeError(t, recorder).Error, body)
		assert.Nil(t, findCookie(recorder, constants.SessionCookieName))
	}
}

// # Session Endpoints

func TestHandler_Session(t *testing.T) {
	f := newHTTPFixture(t, false)
	f.seedPassword(t, "ana@example.com", "s3cret-pass")
	signIn, err := f.service.Login(context.Background(), auth.LoginInput{Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: signIn.Session.Token})

	recorder := f.do(request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload sessionBody
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, signIn.User.ID, payload.User.ID)
	assert.Empty(t, payload.SessionToken)

	anonymous := f.do(httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)
}

func TestHandler_Refresh(t *testing.T) {
	f := newHTTPFixture(t, false)
	f.seedPassword(t, "ana@example.com", "s3cret-pass")
	signIn, err := f.service.Login(context.Background(), auth.LoginInput{Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	f.clock.Advance(testTTL / 2)

	request := httptest.NewRequest(http.MethodPost, "/auth/session/refresh", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+signIn.Session.Token)

	recorder := f.do(request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload sessionBody
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, signIn.User.ID, payload.User.ID)
	assert.NotEqual(t, signIn.Session.Token, payload.SessionToken)
	require.NotNil(t, findCookie(recorder, constants.SessionCookieName))

	anonymous := f.do(httptest.NewRequest(http.MethodPost, "/auth/session/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)
}

func TestHandler_Logout(t *testing.T) {
	f := newHTTPFixture(t, false)

	recorder := f.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	cookie := findCookie(recorder, constants.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

// # Federated Endpoints

// startGoogle runs GET /auth/google and returns the issued state cookie.
func (f *httpFixture) startGoogle(t *testing.T) *http.Cookie {
	t.Helper()

	recorder := f.do(httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	require.Equal(t, http.StatusFound, recorder.Code)

	cookie := findCookie(recorder, constants.OAuthStateCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	location, err := url.Parse(recorder.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, cookie.Value, location.Query().Get("state"))
	assert.True(t, f.redis.Exists(constants.RedisPrefixOAuthState+cookie.Value))

	return cookie
}

func (f *httpFixture) callback(state string, stateCookie *http.Cookie, extra url.Values) *httptest.ResponseRecorder {
	query := url.Values{"state": {state}, "code": {"good-code"}}
	for key, values := range extra {
		query[key] = values
	}

	request := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query.Encode(), nil)
	if stateCookie != nil {
		request.AddCookie(stateCookie)
	}
	return f.do(request)
}

const refusedLocation = testAppURL + "/auth/error?error=AccessDenied"

func TestHandler_GoogleSignIn(t *testing.T) {
	f := newHTTPFixture(t, true)
	stateCookie := f.startGoogle(t)

	recorder := f.callback(stateCookie.Value, stateCookie, nil)
	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, testAppURL+"/", recorder.Header().Get("Location"))

	session := findCookie(recorder, constants.SessionCookieName)
	require.NotNil(t, session)
	claims, err := f.codec.Verify(session.Value)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.True(t, claims.EmailVerified)

	_, err = f.profiles.FindByEmail(context.Background(), "ana@example.com")
	assert.NoError(t, err)
	assert.False(t, f.redis.Exists(constants.RedisPrefixOAuthState+stateCookie.Value))

	replay := f.callback(stateCookie.Value, stateCookie, nil)
	assert.Equal(t, refusedLocation, replay.Header().Get("Location"))
	assert.Nil(t, findCookie(replay, constants.SessionCookieName))
}

func TestHandler_GoogleCallbackRefusals(t *testing.T) {
	tests := []struct {
		name string
		run  func(*httpFixture, *http.Cookie) *httptest.ResponseRecorder
	}{
		{"state_mismatch", func(f *httpFixture, cookie *http.Cookie) *httptest.ResponseRecorder {
			return f.callback("other-state", cookie, nil)
		}},
		{"missing_state_cookie", func(f *httpFixture, cookie *http.Cookie) *httptest.ResponseRecorder {
			return f.callback(cookie.Value, nil, nil)
		}},
		{"expired_state", func(f *httpFixture, cookie *http.Cookie) *httptest.ResponseRecorder {
			f.redis.FastForward(constants.OAuthStateTTL * 2)
			return f.callback(cookie.Value, cookie, nil)
		}},
		{"provider_error", func(f *httpFixture, cookie *http.Cookie) *httptest.ResponseRecorder {
			return f.callback(cookie.Value, cookie, url.Values{"error": {"access_denied"}})
		}},
		{"bad_code", func(f *httpFixture, cookie *http.Cookie) *httptest.ResponseRecorder {
			return f.callback(cookie.Value, cookie, url.Values{"code": {"bad-code"}})
		}},
		{"unverified_email", func(f *httpFixture, cookie *http.Cookie) *httptest.ResponseRecorder {
			f.provider.identity.EmailVerified = boolPtr(false)
			return f.callback(cookie.Value, cookie, nil)
		}},
		{"store_failure", func(f *httpFixture, cookie *http.Cookie) *httptest.ResponseRecorder {
			f.profiles.findErr = errors.New("connection refused")
			return f.callback(cookie.Value, cookie, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHTTPFixture(t, true)
			cookie := f.startGoogle(t)

			recorder := tt.run(f, cookie)

			assert.Equal(t, http.StatusFound, recorder.Code)
			assert.Equal(t, refusedLocation, recorder.Header().Get("Location"))
			assert.Nil(t, findCookie(recorder, constants.SessionCookieName))
			assert.Zero(t, f.profiles.inserts)
		})
	}
}

func TestHandler_GoogleNotConfigured(t *testing.T) {
	f := newHTTPFixture(t, false)

	for _, target := range []string{"/auth/google", "/auth/google/callback?state=s&code=c"} {
		recorder := f.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusInternalServerError, recorder.Code, target)
		assert.Equal(t, "CONFIG_ERROR", decodeError(t, recorder).Code, target)
	}
}
