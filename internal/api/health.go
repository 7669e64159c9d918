// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/marketplace/internal/platform/constants"
	"github.com/taibuivan/marketplace/internal/platform/ctxutil"
	"github.com/taibuivan/marketplace/internal/platform/respond"
)

// readinessTimeout bounds the time spent pinging every dependency.
const readinessTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckDatabase pings the PostgreSQL pool.
	CheckDatabase HealthCheck

	// CheckCache pings the Redis client.
	CheckCache HealthCheck
}

type healthHandler struct {
	dependencies HealthDependencies
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

// readiness handles GET /ready (Readiness probe).
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
	defer cancel()

	logger := ctxutil.GetLogger(ctx)
	results := make([]checkResult, 0, 2)
	isSystemReady := true

	run := func(name string, check HealthCheck) {
		if check == nil {
			return
		}
		result := checkResult{Name: name, IsOK: true}
		if err := check(ctx); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			logger.ErrorContext(ctx, "readiness_check_failed", slog.String("dependency", name), slog.Any("error", err))
		}
		results = append(results, result)
	}

	run("postgres", handler.dependencies.CheckDatabase)
	run("redis", handler.dependencies.CheckCache)

	responseStatus := "ready"
	httpStatus := http.StatusOK

	if !isSystemReady {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	}})
}
