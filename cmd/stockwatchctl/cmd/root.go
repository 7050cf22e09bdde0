// Package cmd holds the stockwatchctl maintenance commands.
package cmd

import (
	"fmt"
	"time"

	"stockwatch/pkg/config"
	"stockwatch/pkg/logger"
	"stockwatch/pkg/store"

	"github.com/spf13/cobra"
)

var (
	verbose bool

	cfg *config.Config
	st  *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "stockwatchctl",
	Short: "stockwatch maintenance commands",
	Long: `stockwatch maintenance commands.

Usage:
    go run ./cmd/stockwatchctl [command]

All commands operate on the PostgreSQL database named by DB_DSN (read from the
environment or .env).`,
	SilenceUsage:      true,
	PersistentPreRunE: openStore,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if st != nil {
			return st.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log SQL warnings and debug output")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(deleteUserCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(pruneTokensCmd)
}

func openStore(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}
	if cfg.StoreDriver != "postgres" {
		return fmt.Errorf("stockwatchctl requires STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{Level: level, Format: "pretty", ServiceName: "stockwatchctl"}); err != nil {
		return err
	}
	db, err := store.Open(cfg.DatabaseDSN, logger.NewGormLogger(500*time.Millisecond))
	if err != nil {
		return err
	}
	st = store.New(db)
	return nil
}
