package main

import (
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/apps/recipe"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/storage"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmdPersistentFlags struct {
	LogLevel string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error) - overrides LOG_LEVEL")
	rootCmd.AddCommand(serveCmd, migrateCmd, createSuperuserCmd)
}

var rootCmd = &cobra.Command{
	Use:   "recipe-server",
	Short: "Recipe API server",
	Long:  `Recipe API server: user accounts with token auth plus per-user tags, ingredients and recipes.`,
	Example: `recipe-server
  recipe-server serve --log-level debug
  recipe-server migrate
  recipe-server createsuperuser --email admin@example.com --password secret`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         serve,
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the environment and installs the stdout logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(rootCmdPersistentFlags.LogLevel)
		slog.Error("failed to load config", "error", err)
		return nil, err
	}
	if rootCmdPersistentFlags.LogLevel != "" {
		cfg.LogLevel = rootCmdPersistentFlags.LogLevel
	}
	logging.Setup(cfg.LogLevel)
	return cfg, nil
}

func newPlugins(store storage.Store) []apps.Plugin {
	return []apps.Plugin{
		recipe.New(store),
	}
}

func migrateAll(db *gorm.DB, plugins []apps.Plugin) error {
	if err := database.MigrateShared(db); err != nil {
		return fmt.Errorf("shared migration failed: %w", err)
	}
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(db, models); err != nil {
				return fmt.Errorf("plugin %s migration failed: %w", p.ID(), err)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}
	return nil
}
