// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/marketplace/internal/platform/ctxkey"
	"github.com/taibuivan/marketplace/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Session

// WithSession returns a new context with the verified session claims attached.
func WithSession(ctx context.Context, claims *sec.SessionClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, claims)
}

// GetSession retrieves the [*sec.SessionClaims] from the [context.Context].
func GetSession(ctx context.Context) *sec.SessionClaims {
	claims, ok := ctx.Value(ctxkey.KeySession).(*sec.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// CurrentUser returns the read-only signed-in user, or false for anonymous requests.
func CurrentUser(ctx context.Context) (sec.SessionUser, bool) {
	claims := GetSession(ctx)
	if claims == nil {
		return sec.SessionUser{}, false
	}
	return claims.User(), true
}
