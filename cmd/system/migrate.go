package system

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/thera_backend/config"
	"github.com/Alijeyrad/thera_backend/internal/store/migrations"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
	"github.com/Alijeyrad/thera_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed default RBAC policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			if timeout <= 0 {
				timeout = time.Minute
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			// application db
			db, err := database.Open(database.FromCentralConfig(cfg.Database))
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db, migrations.Files)

			if statusOnly {
				statuses, err := migrator.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to read migration status: %w", err)
				}
				for _, s := range statuses {
					state := "pending"
					if s.AppliedAt != nil {
						state = "applied " + s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Printf("%04d  %-40s %s\n", s.Version, s.Name, state)
				}
				return nil
			}

			fmt.Println("Running migrations for application DB.")
			n, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", n)

			// casbin db
			fmt.Println("Preparing Casbin DB.")
			azCfg := authorize.FromCentralConfig(cfg.Authorization)
			azCfg.PolicySyncEnabled = false
			enforcer, cleanup, err := authorize.NewEnforcer(azCfg, database.NewDSN(cfg.CasbinDatabase))
			if err != nil {
				return fmt.Errorf("failed to create enforcer: %w", err)
			}
			defer cleanup(context.Background())

			auth, err := authorize.NewAuthorization(enforcer, false)
			if err != nil {
				return fmt.Errorf("failed to create authorization: %w", err)
			}

			slog.Info("Seeding Casbin policies...")
			if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
				return fmt.Errorf("failed to seed policies: %w", err)
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "Print applied and pending migrations without applying")

	return cmd
}
