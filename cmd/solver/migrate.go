package main

import (
	"errors"

	pgStorage "solver-rebalancer/internal/adapter/storage/postgres"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the PostgreSQL schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage.Driver != "postgres" {
			return errors.New("migrate requires storage.driver=postgres")
		}
		pool, err := pgStorage.NewPool(cmd.Context(), cfg.Database, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		return pgStorage.Migrate(cmd.Context(), pool, log)
	},
}
