package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tictask/backend/internal/config"
	"tictask/backend/internal/db"
	"tictask/backend/internal/logging"
)

func main() {
	var configFile string

	cmd := &cobra.Command{
		Use:           "tictask-migrate",
		Short:         "Apply pending SQLite migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(configFile)
			if err != nil {
				return err
			}
			_ = v.BindPFlag("db_path", cmd.Flags().Lookup("db-path"))
			cfg := config.Load(v)
			logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

			database, err := db.OpenSQLite(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			applied, err := db.RunMigrations(database, cfg.MigrationsDir)
			if err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			logger.Info().Str("db", cfg.DBPath).Strs("applied", applied).Msg("migrations applied successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml)")
	cmd.Flags().String("db-path", "", "SQLite database path")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
