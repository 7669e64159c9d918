// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth provides the HTTP delivery layer for the credential and session lifecycle.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: JSON for credential endpoints, redirects for the federated flow.
  - Security: Sets the HttpOnly session cookie and guards the OAuth state.
  - Delegation: Every decision about identities is taken by [Service].

This layer is strictly responsible for transport concerns (status codes, headers, cookies).
*/
package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/marketplace/internal/platform/apperr"
	"github.com/taibuivan/marketplace/internal/platform/constants"
	"github.com/taibuivan/marketplace/internal/platform/ctxutil"
	"github.com/taibuivan/marketplace/internal/platform/middleware"
	requestutil "github.com/taibuivan/marketplace/internal/platform/request"
	"github.com/taibuivan/marketplace/internal/platform/respond"
	"github.com/taibuivan/marketplace/internal/platform/sec"
)

// # Definitions & Constructors

// HandlerOptions holds the transport settings of [Handler].
type HandlerOptions struct {
	// AppURL is where the browser lands after a federated sign-in.
	AppURL string

	// SecureCookies marks every cookie Secure. Disabled only for plain-http development.
	SecureCookies bool
}

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages every entry point of the session lifecycle
// (Registration, Login, Google sign-in, Refresh, Logout).
type Handler struct {
	authService *Service
	states      OAuthStateRepository
	provider    IdentityProvider
	options     HandlerOptions
}

// NewHandler constructs a new [Handler].
//
// provider may be nil, in which case the federated routes answer with a ConfigError.
func NewHandler(service *Service, states OAuthStateRepository, provider IdentityProvider, options HandlerOptions) *Handler {
	options.AppURL = strings.TrimRight(options.AppURL, "/")
	return &Handler{
		authService: service,
		states:      states,
		provider:    provider,
		options:     options,
	}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register        : Creates a new profile.
//   - POST /login           : Authenticates and returns a session token.
//   - GET  /session         : Returns the current user.
//   - POST /session/refresh : Reissues the session token.
//   - POST /logout          : Clears the session cookie.
//   - GET  /google          : Starts Google sign-in.
//   - GET  /google/callback : Completes Google sign-in.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.With(middleware.RequireAuth).Get("/session", handler.session)
	router.Post("/session/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	router.Get("/google", handler.googleStart)
	router.Get("/google/callback", handler.googleCallback)

	return router
}

// # Request & Response Payloads

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Location    string `json:"location"`
	AccountType string `json:"accountType"`
}

type registerResponse struct {
	Message string          `json:"message"`
	User    *RegisteredUser `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User         sec.SessionUser `json:"user"`
	SessionToken string          `json:"session_token,omitempty"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

/*
Register handles the creation of a new profile.

POST /auth/register

Request:
  - Body: registerRequest (email, password, firstName, lastName, location?, accountType?)

Response:
  - 201: {message, user:{id,email,name}}
  - 400: Missing fields, bad email or duplicate email
  - 500: Store failure
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:       input.Email,
		Password:    input.Password,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Location:    input.Location,
		AccountType: input.AccountType,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusCreated, registerResponse{
		Message: MessageRegistered,
		User:    user,
	})
}

/*
Login authenticates a user and establishes a session.

POST /auth/login

Description: Sets the HttpOnly session cookie for browsers and also returns
the token in the body for API clients.

Request:
  - Body: loginRequest (email, password)

Response:
  - 200: {user, session_token, expires_at}
  - 401: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	signIn, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, signIn.Session)
	respond.JSON(writer, http.StatusOK, sessionResponse{
		User:         signIn.User,
		SessionToken: signIn.Session.Token,
		ExpiresAt:    signIn.Session.ExpiresAt,
	})
}

/*
Session exposes the current user from the verified token.

GET /auth/session

Response:
  - 200: {user, expires_at}
  - 401: Anonymous request
*/
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	claims := requestutil.Session(request)

	respond.JSON(writer, http.StatusOK, sessionResponse{
		User:      claims.User(),
		ExpiresAt: claims.Expiry(),
	})
}

/*
Refresh reissues the session token with unchanged claims.

POST /auth/session/refresh

Response:
  - 200: {user, session_token, expires_at}
  - 401: Missing, invalid or expired session
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.SessionToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if token == "" {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	signIn, err := handler.authService.RefreshSession(token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, signIn.Session)
	respond.JSON(writer, http.StatusOK, sessionResponse{
		User:         signIn.User,
		SessionToken: signIn.Session.Token,
		ExpiresAt:    signIn.Session.ExpiresAt,
	})
}

/*
Logout clears the session cookie.

POST /auth/logout

Description: Sessions are stateless, so nothing is revoked server-side; a
copied token stays valid until it expires.

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.clearCookie(writer, constants.SessionCookieName, constants.SessionCookiePath)
	respond.NoContent(writer)
}

// # Federated Sign-in

/*
GoogleStart redirects the browser to the Google consent page.

GET /auth/google

Response:
  - 302: Redirect to Google
  - 500: Provider not configured or state store failure
*/
func (handler *Handler) googleStart(writer http.ResponseWriter, request *http.Request) {
	if handler.provider == nil {
		respond.Error(writer, request, apperr.Config("Google sign-in is not configured"))
		return
	}

	state, err := sec.GenerateSecureToken(constants.OAuthStateLength)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	if err := handler.states.Save(request.Context(), state, constants.OAuthStateTTL); err != nil {
		respond.Error(writer, request, apperr.Storage("Unable to start sign-in", err))
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.OAuthStateCookieName,
		Value:    state,
		Path:     constants.OAuthStateCookiePath,
		MaxAge:   int(constants.OAuthStateTTL.Seconds()),
		Secure:   handler.options.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(writer, request, handler.provider.AuthCodeURL(state), http.StatusFound)
}

/*
GoogleCallback completes the code flow and signs the user in.

GET /auth/google/callback

Description: The state must match the cookie and be live in the state store;
it is consumed so a replayed callback fails. Every refusal lands on the
front-end error page with error=AccessDenied.

Response:
  - 302: Redirect to APP_URL (success) or APP_URL/auth/error (refusal)
  - 500: Provider not configured
*/
func (handler *Handler) googleCallback(writer http.ResponseWriter, request *http.Request) {
	if handler.provider == nil {
		respond.Error(writer, request, apperr.Config("Google sign-in is not configured"))
		return
	}

	logger := ctxutil.GetLogger(request.Context())
	query := request.URL.Query()
	handler.clearCookie(writer, constants.OAuthStateCookieName, constants.OAuthStateCookiePath)

	// ── 1. Provider Errors ────────────────────────────────────────────────
	if providerError := query.Get("error"); providerError != "" {
		logger.InfoContext(request.Context(), "auth_federated_cancelled", slog.String("provider_error", providerError))
		handler.redirectRefused(writer, request)
		return
	}

	// ── 2. State Verification ─────────────────────────────────────────────
	state := query.Get("state")
	cookie, err := request.Cookie(constants.OAuthStateCookieName)
	if state == "" || err != nil || cookie.Value != state {
		logger.WarnContext(request.Context(), "auth_federated_refused", slog.String("reason", "state_mismatch"))
		handler.redirectRefused(writer, request)
		return
	}

	live, err := handler.states.Consume(request.Context(), state)
	if err != nil || !live {
		logger.WarnContext(request.Context(), "auth_federated_refused",
			slog.String("reason", "state_not_live"),
			slog.Any("error", err),
		)
		handler.redirectRefused(writer, request)
		return
	}

	// ── 3. Code Exchange ──────────────────────────────────────────────────
	code := query.Get("code")
	if code == "" {
		handler.redirectRefused(writer, request)
		return
	}

	identity, err := handler.provider.Identify(request.Context(), code)
	if err != nil {
		logger.WarnContext(request.Context(), "auth_federated_refused",
			slog.String("reason", "provider_exchange"),
			slog.Any("error", err),
		)
		handler.redirectRefused(writer, request)
		return
	}

	// ── 4. Reconciliation ─────────────────────────────────────────────────
	signIn, err := handler.authService.SignInFederated(request.Context(), *identity)
	if err != nil {
		handler.redirectRefused(writer, request)
		return
	}

	handler.setSessionCookie(writer, signIn.Session)
	http.Redirect(writer, request, handler.options.AppURL+"/", http.StatusFound)
}

// # Cookie Helpers

// setSessionCookie stores the session token in an HttpOnly cookie that expires with the token.
func (handler *Handler) setSessionCookie(writer http.ResponseWriter, session *sec.Session) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    session.Token,
		Path:     constants.SessionCookiePath,
		Expires:  session.ExpiresAt,
		Secure:   handler.options.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie instructs the browser to drop a cookie.
func (handler *Handler) clearCookie(writer http.ResponseWriter, name, path string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Secure:   handler.options.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// redirectRefused sends the browser to the front-end error page.
func (handler *Handler) redirectRefused(writer http.ResponseWriter, request *http.Request) {
	target := handler.options.AppURL + "/auth/error?" + url.Values{"error": {RefusalAccessDenied}}.Encode()
	http.Redirect(writer, request, target, http.StatusFound)
}
