package main

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/spf13/cobra"
)

var superuserFlags struct {
	Email    string
	Password string
	Name     string
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuserFlags.Email, "email", "", "Email of the new superuser")
	createSuperuserCmd.Flags().StringVar(&superuserFlags.Password, "password", "", "Password of the new superuser")
	createSuperuserCmd.Flags().StringVar(&superuserFlags.Name, "name", "", "Display name")
	_ = createSuperuserCmd.MarkFlagRequired("email")
	_ = createSuperuserCmd.MarkFlagRequired("password")
}

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a staff superuser",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.Connect(cmd.Context(), cfg); err != nil {
			return err
		}
		defer database.Close()

		if err := database.MigrateShared(database.DB); err != nil {
			return err
		}

		if err := services.ValidatePassword(superuserFlags.Password); err != nil {
			slog.Error("superuser rejected", "error", err)
			return err
		}

		users := services.NewUserService(database.DB, nil)
		user, err := users.CreateSuperuser(cmd.Context(), superuserFlags.Email, superuserFlags.Password, superuserFlags.Name)
		if err != nil {
			if errors.Is(err, services.ErrValidation) {
				slog.Error("superuser rejected", "error", err)
			}
			return err
		}
		slog.Info("superuser created", "email", user.Email, "id", user.ID.String())
		return nil
	},
}
