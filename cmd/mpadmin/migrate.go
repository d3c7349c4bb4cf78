package main

import (
	"fmt"

	"github.com/dmitrijs2005/mpmonitor/internal/server/config"
	"github.com/dmitrijs2005/mpmonitor/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseDSN == config.DatabaseMemory {
				return fmt.Errorf("migrate needs a PostgreSQL DSN")
			}

			db, err := repomanager.Open(cmd.Context(), cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repomanager.NewPostgresRepositoryManager().RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			success(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
