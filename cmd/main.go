package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/tagmytrophy/internal/config"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "tagmytrophy",
		Short:         "QR memory tags: storefront API, notifier and slug tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(notifierCmd())
	rootCmd.AddCommand(slugsCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
