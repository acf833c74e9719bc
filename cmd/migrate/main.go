package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/fhuszti/media-pipeline/internal/config"
	"github.com/fhuszti/media-pipeline/internal/db"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/migration"
)

func main() {
	ctx := context.Background()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Errorf(ctx, "❌  %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var steps int

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply pending schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, database *db.Database) error {
				if err := migration.MigrateUp(ctx, database.DB); err != nil {
					return err
				}
				logger.Info(ctx, "✅  Migrations applied successfully")
				return nil
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, database *db.Database) error {
				if err := migration.MigrateDown(ctx, database.DB, steps); err != nil {
					return err
				}
				logger.Infof(ctx, "✅  Rolled back %d migration(s)", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	root.AddCommand(down)

	return root
}

func withDatabase(ctx context.Context, fn func(context.Context, *db.Database) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init()

	dbCfg := cfg.MariaDB()
	dbCfg.MultiStatements = true
	database, err := db.New(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	return fn(ctx, database)
}
