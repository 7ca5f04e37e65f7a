// Package migrate implements the exam log migration subcommand.
package migrate

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edusync/learnlog/internal/conf"
	"github.com/edusync/learnlog/internal/datastore"
	"github.com/edusync/learnlog/internal/errors"
	"github.com/edusync/learnlog/internal/logging"
	"github.com/edusync/learnlog/internal/migration"
)

// Command creates the migrate command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate legacy exam logs into the content logging schema",
		Long: "Migrate pages through the legacy exam logs and converts each one into " +
			"content session, summary, mastery and attempt logs. The run is idempotent " +
			"and safe to repeat after an interruption or failure.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunMigration(cmd.Context(), settings)
		},
	}

	cmd.PersistentFlags().IntVar(&settings.Migration.PageSize, "page-size",
		viper.GetInt("migration.pagesize"), "Number of legacy exam logs fetched per page")

	return cmd
}

// RunMigration opens the configured store and runs the migration to completion.
func RunMigration(ctx context.Context, settings *conf.Settings) error {
	store := datastore.New(settings)
	if store == nil {
		return errors.Newf("no database output enabled in configuration").
			Component("migrate").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := datastore.InitializeLogger(""); err != nil {
		logging.Warn("datastore file logging unavailable", "error", err)
	}
	defer func() { _ = datastore.CloseLogger() }()

	if err := store.Open(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
		datastore.SetLogLevel(slog.LevelDebug)
	}

	logger, closeLogger, err := logging.NewFileLogger(settings.Migration.LogPath, "migration", level)
	if err != nil {
		logging.Warn("migration file logging unavailable, using default logger", "error", err)
		logger = logging.ForService("migration")
	} else {
		defer func() { _ = closeLogger() }()
	}

	migrator := migration.New(&migration.Config{
		Store:    store,
		State:    datastore.NewStateManager(store.GormDB()),
		Logger:   logger,
		PageSize: settings.Migration.PageSize,
	})

	return migrator.Run(ctx)
}
