package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			db, err := postgres.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			logger.New("migrate").Info("schema_applied", "Database schema is up to date", "startup",
				map[string]any{"db": cfg.Database.Database})
			return nil
		},
	}
}
