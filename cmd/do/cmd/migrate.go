package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/templui/pacekeeper/internal/db"
)

func MigrateCmd() *cobra.Command {
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			if !cmd.Flags().Changed("driver") {
				driver = envOr("DB_DRIVER", driver)
			}
			if !cmd.Flags().Changed("dsn") {
				dsn = envOr("DB_CONNECTION", dsn)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&driver, "driver", "sqlite", "database driver (sqlite or pgx), or set DB_DRIVER")
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "./data/pacekeeper.db", "connection string, or set DB_CONNECTION")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Init(driver, dsn)
			if err != nil {
				return err
			}
			defer database.Close()
			return db.RunMigrations(database.DB, driver)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Init(driver, dsn)
			if err != nil {
				return err
			}
			defer database.Close()
			return db.MigrateDown(database.DB, driver)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Init(driver, dsn)
			if err != nil {
				return err
			}
			defer database.Close()
			v, err := db.MigrationVersion(database.DB, driver)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})

	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
