// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/marketplace/internal/platform/apperr"
	"github.com/taibuivan/marketplace/internal/platform/constants"
	"github.com/taibuivan/marketplace/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/marketplace/internal/platform/request"
	"github.com/taibuivan/marketplace/internal/platform/respond"
	"github.com/taibuivan/marketplace/internal/platform/sec"
)

// SessionVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining SessionVerifier here decouples the middleware from [sec.SessionCodec],
// allowing us to easily inject fakes during unit testing.
type SessionVerifier interface {
	Verify(tokenString string) (*sec.SessionClaims, error)
}

// Authenticate extracts and verifies the session token of every request.
//
// # Flow
//  1. Read 'Authorization: Bearer <token>', falling back to the session cookie.
//  2. If absent, request proceeds as anonymous.
//  3. A bad Authorization header is rejected with 401.
//  4. A bad or expired cookie is ignored so the browser can sign in again.
//  5. Inject [*sec.SessionClaims] into the request context for downstream use.
//
// The middleware never queries a store; the claims come from the token alone.
func Authenticate(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Token Extraction ───────────────────────────────────────────
			token, err := requestutil.SessionToken(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 2. Anonymous Access ───────────────────────────────────────────
			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.Verify(token)
			if err != nil {
				fromHeader := request.Header.Get(constants.HeaderAuthorization) != ""
				ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "session_token_rejected",
					slog.Bool("from_header", fromHeader),
					slog.Bool("expired", errors.Is(err, sec.ErrSessionExpired)),
				)

				if fromHeader {
					respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
					return
				}

				next.ServeHTTP(writer, request)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithSession(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, err := requestutil.RequiredSession(request); err != nil {
			respond.Error(writer, request, err)
			return
		}
		next.ServeHTTP(writer, request)
	})
}
