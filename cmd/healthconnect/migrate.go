package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/healthconnect/backend/internal/adapters/database"
	"github.com/healthconnect/backend/internal/infrastructure/clients/postgres"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
	"github.com/healthconnect/backend/pkg/config"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.InitLogger("healthconnect-cli", cfg.Env)

			client, err := postgres.NewClient(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			count, err := database.NewMigrator(client).Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List embedded migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrations, err := database.NewMigrator(postgres.NewFromDB(nil)).Load()
			if err != nil {
				return err
			}
			for _, m := range migrations {
				fmt.Fprintf(cmd.OutOrStdout(), "%03d  %s\n", m.Version, m.Name)
			}
			return nil
		},
	})
	return cmd
}
