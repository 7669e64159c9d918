// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Session token issuer, lifetime and cookie configuration.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "marketplace-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// AuthRateLimitRPS throttles the credential endpoints per IP.
	AuthRateLimitRPS = 2.0

	// AuthRateLimitBurst lets a user retry a mistyped password a few times in a row.
	AuthRateLimitBurst = 10

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in session tokens.
	AuthIssuer = "marketplace.mt"

	// SessionTTL is the validity window of a session token. There is no
	// server-side revocation, so this is the longest a leaked token is usable.
	SessionTTL = 30 * 24 * time.Hour

	// SessionCookieName is the name of the cookie that stores the session token.
	SessionCookieName = "session_token"

	// SessionCookiePath scopes the session cookie to the whole site.
	SessionCookiePath = "/"

	// OAuthStateCookieName holds the state value between the redirect and the callback.
	OAuthStateCookieName = "oauth_state"

	// OAuthStateCookiePath limits the state cookie to the Google routes.
	OAuthStateCookiePath = "/auth/google"

	// OAuthStateTTL bounds how long a user may stay on the provider consent page.
	OAuthStateTTL = 10 * time.Minute

	// OAuthStateLength is the byte length of the random OAuth state value.
	OAuthStateLength = 32
)

// # HTTP Headers

const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderOrigin         = "Origin"
	HeaderAuthorization  = "Authorization"
	AuthorizationSchemes = "bearer"
)

// # Log & Payload Field Identifiers

const (
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixOAuthState = "auth:oauth_state:"
)
