package cli

import (
	"fmt"
	"log/slog"

	"github.com/pairly-app/pairly-backend/internal/config"
	"github.com/pairly-app/pairly-backend/internal/database"
	"github.com/pairly-app/pairly-backend/internal/logging"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies the schema and exits, for deploys that migrate
// before rolling the server.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup()

			cfg := config.Load()
			if cfg.DBPassword == "" {
				return fmt.Errorf("DB_PASSWORD environment variable is required")
			}

			if err := database.Connect(cfg); err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			if err := database.Migrate(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			slog.Info("migrations applied")
			return nil
		},
	}
}
