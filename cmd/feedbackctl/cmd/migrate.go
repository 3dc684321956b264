package cmd

import (
	"github.com/spf13/cobra"
	"github.com/templui/feedbackdesk/internal/db"
)

func MigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			return db.RunMigrations(database.DB, cfg.DBDriver)
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			return db.MigrateDown(database.DB, cfg.DBDriver)
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			return db.MigrationStatus(database.DB, cfg.DBDriver)
		},
	})

	return migrate
}
