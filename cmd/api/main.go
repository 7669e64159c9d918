// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the marketplace HTTP API server.
//
// # Commands
//
//   - serve: connect the stores, apply migrations and serve HTTP (default).
//   - migrate: apply pending migrations and exit.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/marketplace/internal/platform/config"
	"github.com/taibuivan/marketplace/internal/platform/constants"
)

var (
	cfg *config.Config
	log *slog.Logger

	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:           constants.AppName,
	Short:         "Marketplace API server",
	Long:          `Serves registration, password login, Google sign-in and session endpoints for the marketplace.`,
	Version:       constants.AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {

		// ── 1. Logger ──────────────────────────────────────────────────────
		// Initialize first so that subsequent startup errors are structured JSON.
		log = newLogger(slog.LevelInfo)
		slog.SetDefault(log)

		// ── 2. Configuration ──────────────────────────────────────────────
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		if cfg.Debug || debugFlag {
			log = newLogger(slog.LevelDebug)
			slog.SetDefault(log)
			log.Debug("debug_logging_enabled")
		}

		log.Info("configuration_loaded",
			slog.String("environment", cfg.Environment),
			slog.String("port", cfg.ServerPort),
			slog.Bool("google_enabled", cfg.GoogleEnabled()),
		)
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging (env: DEBUG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := log
		if logger == nil {
			logger = newLogger(slog.LevelInfo)
		}
		logger.Error("startup_failure", slog.Any("error", err))
		os.Exit(1)
	}
}

// newLogger builds the JSON logger carrying the global app attribute.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String(constants.FieldApp, constants.AppName))
}
