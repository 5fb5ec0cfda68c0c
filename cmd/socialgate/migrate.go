package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/socialgate/internal/config"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	pgstore "github.com/dropDatabas3/socialgate/internal/store/pg"
	migrations "github.com/dropDatabas3/socialgate/migrations/postgres"
)

func newMigrateCmd(flagConfig, flagEnvFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes del identity store",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load(*flagEnvFile)

			cfg, err := config.Load(*flagConfig)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requires storage.driver=postgres (got %q)", cfg.Storage.Driver)
			}

			logger.Init(logger.Config{Env: cfg.App.Env, Level: "info", ServiceName: "socialgate-migrate"})
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			pg, err := pgstore.New(ctx, cfg.Storage.DSN, pgstore.Config{})
			if err != nil {
				return fmt.Errorf("postgres store: %w", err)
			}
			defer pg.Close()

			res, err := pg.Migrate(ctx, migrations.FS)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Printf("applied=%d skipped=%d in %s\n", len(res.Applied), len(res.Skipped), res.Duration)
			return nil
		},
	}
}
