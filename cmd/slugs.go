package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/postgres"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/slug"
	"github.com/YelzhanWeb/tagmytrophy/internal/qrslug"
)

func slugsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slugs",
		Short: "Manage the QR slug pool",
	}

	var count int
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Add fresh available slugs to the pool",
		Example: `  tagmytrophy slugs generate --count 500
  tagmytrophy slugs generate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			generator := qrslug.NewGenerator(time.Now().UnixNano())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if count <= 0 {
				count = cfg.App.SlugBatchSize
			}

			if dryRun {
				values, err := generator.GenerateMultiple(count)
				if err != nil {
					return err
				}
				for _, v := range values {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				}
				return nil
			}

			ctx := context.Background()
			db, err := postgres.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			inserted, err := slug.NewService(postgres.NewStore(db), generator, logger.New("slugs")).Seed(ctx, count)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d of %d slugs\n", inserted, count)
			return nil
		},
	}
	generate.Flags().IntVarP(&count, "count", "n", 0, "number of slugs (defaults to app.slug_batch_size)")
	generate.Flags().Bool("dry-run", false, "print slugs without storing them")

	cmd.AddCommand(generate)
	return cmd
}
