// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/marketplace/internal/api"
	"github.com/taibuivan/marketplace/internal/platform/constants"
	"github.com/taibuivan/marketplace/internal/platform/migration"
	pgstore "github.com/taibuivan/marketplace/internal/platform/postgres"
	redisstore "github.com/taibuivan/marketplace/internal/platform/redis"
	"github.com/taibuivan/marketplace/internal/platform/sec"
	"github.com/taibuivan/marketplace/internal/users/auth"
	"github.com/taibuivan/marketplace/internal/users/profile"
)

// startupTimeout bounds store connections and migrations so misconfiguration
// is caught quickly rather than hanging indefinitely.
const startupTimeout = 30 * time.Second

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Connects to PostgreSQL and Redis, applies pending migrations and serves
the HTTP API until SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply migrations on startup")
}

// runServe is the startup sequence of the server.
//
//  1. Connect to PostgreSQL (pgxpool).
//  2. Connect to Redis.
//  3. Run database migrations (idempotent).
//  4. Wire HTTP handlers.
//  5. Start HTTP server with graceful shutdown.
func runServe(cmd *cobra.Command, args []string) error {
	log.Info("service_initializing", slog.String(constants.FieldVersion, constants.AppVersion))

	startupCtx, startupCancel := context.WithTimeout(cmd.Context(), startupTimeout)
	defer startupCancel()

	// ── 1. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 2. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 3. Migrations ─────────────────────────────────────────────────────
	if !skipMigrations {
		if err := migration.RunUp(startupCtx, cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// ── 4. Session Codec ──────────────────────────────────────────────────
	codec, err := sec.NewSessionCodec([]byte(cfg.SessionSecret), constants.SessionTTL, constants.AuthIssuer)
	if err != nil {
		return fmt.Errorf("initialize session codec: %w", err)
	}

	// ── 5. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	})

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	profileRepository := profile.NewProfileRepository(pool)
	stateRepository := auth.NewOAuthStateRepository(rdb)
	authService := auth.NewService(profileRepository, codec)

	var identityProvider auth.IdentityProvider
	if cfg.GoogleEnabled() {
		identityProvider = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL())
	} else {
		log.Warn("google_sign_in_disabled", slog.String("reason", "GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set"))
	}

	authHandler := auth.NewHandler(authService, stateRepository, identityProvider, auth.HandlerOptions{
		AppURL:        cfg.AppURL,
		SecureCookies: !cfg.IsDevelopment(),
	})

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(cmd.Context())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, codec, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
	})

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(quit)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("serve http: %w", err)
	}

	// Give in-flight requests enough time to complete.
	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server_stopped_cleanly")
	return nil
}
