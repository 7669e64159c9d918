// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/marketplace/internal/platform/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Applies every pending migration from MIGRATION_PATH and exits.
Useful as a release step when the server runs with --skip-migrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), startupTimeout)
		defer cancel()

		if err := migration.RunUp(ctx, cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		log.Info("migrations_applied")
		return nil
	},
}
