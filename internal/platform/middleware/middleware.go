// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware provides the cross-cutting HTTP processing chain.

It acts as a series of decorators around the standard http.Handler, injecting
traceability, safety, and security into every request lifecycle.

Standard Stack:

  - Trace: RequestID generation for log correlation.
  - Network: Client address resolution behind trusted proxies.
  - Log: Structured Activity logging (slog).
  - Guard: Rate limiting and CORS validation.
  - Safe: Panic recovery to prevent server crashes.

This package ensures that domain handlers can focus purely on business logic
without worrying about infrastructure-level concerns.
*/
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/marketplace/internal/platform/apperr"
	"github.com/taibuivan/marketplace/internal/platform/constants"
	"github.com/taibuivan/marketplace/internal/platform/ctxutil"
	"github.com/taibuivan/marketplace/internal/platform/respond"
	"github.com/taibuivan/marketplace/pkg/uuid"
)

// # Request Tracing

// RequestID attaches a correlation ID to every request for log tracing.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Reuse the client ID only when it is a UUID, so it is safe to log
			requestID, ok := uuid.Canonical(request.Header.Get(constants.HeaderXRequestID))

			// 2. Generate a new one otherwise (using UUID v7 for time-sortable properties)
			if !ok {
				requestID = uuid.New()
			}

			// 3. Inject into context and response headers
			ctx := ctxutil.WithRequestID(request.Context(), requestID)
			writer.Header().Set(constants.HeaderXRequestID, requestID)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Activity Logging

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// StructuredLogger logs every request status and performance metrics.
// It also injects a request-specific logger into the context.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			startTime := time.Now()
			rid := ctxutil.GetRequestID(request.Context())
			ip := RealIP(request)

			// 1. Create a sub-logger for this specific request
			requestLogger := logger.With(
				slog.String("request_id", rid),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", ip),
			)

			// 2. Inject this logger into the context for downstream use
			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			// 3. Proceed to downstream handlers with the enriched context
			next.ServeHTTP(wrappedWriter, request.WithContext(ctx))

			// 4. Final log entry after the request is finished
			latency := time.Since(startTime).Milliseconds()
			logLevel := slog.LevelInfo

			if wrappedWriter.status >= 500 {
				logLevel = slog.LevelError
			} else if wrappedWriter.status >= 400 {
				logLevel = slog.LevelWarn
			}

			// Enlist final response metrics
			logAtters := []any{
				slog.Int("status", wrappedWriter.status),
				slog.Int64("latency_ms", latency),
				slog.String("user_agent", request.UserAgent()),
			}

			requestLogger.Log(ctx, logLevel, "http_request_finished", logAtters...)
		})
	}
}

// # Rate Limiting

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter holds one token bucket per client IP.
type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitClient
	rps     rate.Limit
	burst   int
}

// allow reports whether the client at ip may proceed now.
func (limiter *ipLimiter) allow(ip string) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	clientInfo, found := limiter.clients[ip]

	// Initialize a new limiter if this is a fresh IP
	if !found {
		clientInfo = &rateLimitClient{limiter: rate.NewLimiter(limiter.rps, limiter.burst)}
		limiter.clients[ip] = clientInfo
	}

	// Update the activity timestamp
	clientInfo.lastSeen = time.Now()
	return clientInfo.limiter.Allow()
}

// sweep drops clients idle for longer than ttl.
func (limiter *ipLimiter) sweep(ttl time.Duration) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	for ip, clientInfo := range limiter.clients {
		if time.Since(clientInfo.lastSeen) > ttl {
			delete(limiter.clients, ip)
		}
	}
}

// RateLimit limits requests per IP using the token bucket algorithm.
//
// Each call owns its own bucket table, so the credential endpoints can be
// mounted with a tighter budget than the rest of the API.
func RateLimit(context context.Context, rps float64, burst int) func(http.Handler) http.Handler {
	limiter := &ipLimiter{
		clients: make(map[string]*rateLimitClient),
		rps:     rate.Limit(rps),
		burst:   burst,
	}

	// Start a background cleanup routine that respects context cancellation
	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				limiter.sweep(constants.RateLimitClientTTL)
			case <-context.Done():
				// Stop the goroutine when the application shuts down
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// Identify the client by their IP address
			if !limiter.allow(RealIP(request)) {
				respond.Error(writer, request, apperr.RateLimited("Rate limit exceeded"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Reliability & Safety

// PanicRecovery recovers from panics, logs stack trace, and returns 500.
func PanicRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// Defer a recovery function to catch any runtime exceptions
			defer func() {
				if err := recover(); err != nil {

					// Capture the runtime stack trace for diagnostics
					stackTrace := make([]byte, 2048)
					length := runtime.Stack(stackTrace, false)

					// Retrieve the request-specific logger from context if available
					reqLogger := ctxutil.GetLogger(request.Context())

					// Log the incident to our structured logging system
					reqLogger.ErrorContext(request.Context(), "panic_recovered",
						slog.Any("error", err),
						slog.String("stack", string(stackTrace[:length])),
					)

					// Return a safe, generic error to the client
					respond.Error(writer, request, apperr.Internal(fmt.Errorf("panic: %v", err)))
				}
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # Cross-Origin Resource Sharing

// AppConfig defines the behavior needed by the CORS middleware.
type AppConfig interface {
	IsDevelopment() bool
	AllowedOrigins() []string
}

// CORS handles Cross-Origin Resource Sharing based on application environment.
//
// Credentials are allowed so the browser sends the session cookie, which is
// why the origin is echoed instead of using a wildcard.
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	allowed := cfg.AllowedOrigins()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check the Origin header
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Check if the origin is allowed (allow-list in PROD, open in DEV)
			isAllowed := cfg.IsDevelopment() || slices.Contains(allowed, origin)

			// 3. Inject standard CORS headers if authorized
			if isAllowed {
				header := writer.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Add("Vary", constants.HeaderOrigin)
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, X-Request-ID")
				header.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Max-Age", "300")
			}

			// 4. Handle pre-flight requests (OPTIONS)
			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Middleware Helpers

// RealIP returns the client address of the request.
//
// It reads RemoteAddr only. Forwarding headers are honored by [TrustProxies],
// which rewrites RemoteAddr when the direct peer is a trusted proxy.
func RealIP(request *http.Request) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}

// TrustProxies resolves the client address behind the given reverse proxies.
//
// When the direct peer is inside trusted, the client is the right-most
// X-Forwarded-For hop that is not itself trusted, or X-Real-IP when no
// X-Forwarded-For is present. Requests from any other peer keep their
// RemoteAddr, so a client cannot pick its own rate-limit bucket.
//
// Must be registered before every middleware that calls [RealIP].
func TrustProxies(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}

		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if client, ok := forwardedClient(request, trusted); ok {
				_, port, err := net.SplitHostPort(request.RemoteAddr)
				if err != nil {
					port = "0"
				}
				request.RemoteAddr = net.JoinHostPort(client.String(), port)
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// forwardedClient reads the forwarding headers of a request sent by a trusted peer.
func forwardedClient(request *http.Request, trusted []netip.Prefix) (netip.Addr, bool) {
	isTrusted := func(addr netip.Addr) bool {
		return slices.ContainsFunc(trusted, func(prefix netip.Prefix) bool {
			return prefix.Contains(addr)
		})
	}

	peer, err := netip.ParseAddr(RealIP(request))
	if err != nil || !isTrusted(peer.Unmap()) {
		return netip.Addr{}, false
	}

	if forwarded := request.Header.Values(constants.HeaderXForwardedFor); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return netip.Addr{}, false
			}
			if hop = hop.Unmap(); !isTrusted(hop) {
				return hop, true
			}
		}
		return netip.Addr{}, false
	}

	if realIP, err := netip.ParseAddr(strings.TrimSpace(request.Header.Get(constants.HeaderXRealIP))); err == nil {
		return realIP.Unmap(), true
	}

	return netip.Addr{}, false
}
