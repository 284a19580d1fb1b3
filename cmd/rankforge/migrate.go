package main

import (
	"fmt"

	"github.com/rankforge/rankforge/internal/config"
	"github.com/rankforge/rankforge/internal/store"
	"github.com/spf13/cobra"
)

var migrateDBPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Long:  "Opens the configured database, applies any pending migrations, and exits without starting the server.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDBPath, "db", "",
		"Database path (overrides config and RANKFORGE_DB_PATH)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	path := migrateDBPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path = cfg.Database.Path
	}

	// NewSQLiteStore applies pending migrations as part of opening.
	db, err := store.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "migrations applied: %s\n", path)
	return nil
}
