package main

import (
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Wait for the database, then create or update the schema of every model.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.Connect(cmd.Context(), cfg); err != nil {
			return err
		}
		defer database.Close()

		return migrateAll(database.DB, newPlugins(nil))
	},
}
