package main

import (
	"context"
	"os"

	"project-board-api/internal/config"
	"project-board-api/internal/database"
	"project-board-api/internal/logging"

	"github.com/spf13/cobra"
)

var (
	flagAddr string
	flagDB   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "project-board-api",
		Short: "Project board API with realtime task relay and notifications",
		// serve is the default action
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
		SilenceUsage: true,
	}

	// Flags override the environment.
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "", "Listen address (overrides ADDR)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides DATABASE_PATH)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat)
			db, err := database.Open(cfg.DatabasePath, cfg.SQLLog)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.WithField("path", cfg.DatabasePath).Info("database migrated")
			return nil
		},
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagDB != "" {
		cfg.DatabasePath = flagDB
	}
	return cfg, nil
}
