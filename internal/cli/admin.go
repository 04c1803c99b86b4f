package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lateeflat25-prog/9jabukabackend/internal/accounts"
	"github.com/lateeflat25-prog/9jabukabackend/internal/database"
)

func ensureIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			return database.EnsureIndexes(a.db, a.logger)
		},
	}
}

func createAdminCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Create an administrator account.

The password is read from ADMIN_PASSWORD so it stays out of shell history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("ADMIN_PASSWORD")
			if password == "" {
				return errors.New("ADMIN_PASSWORD is required")
			}

			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if err := database.EnsureAdminIndexes(a.db, a.logger); err != nil {
				return err
			}
			store := accounts.NewMongoStore(a.db, a.cfg.StoreTimeout)
			admin, err := accounts.CreateAdmin(cmd.Context(), store, email, password)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			a.logger.WithField("email", admin.Email).Info("admin created")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
