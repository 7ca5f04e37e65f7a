// Package status implements the migration status subcommand.
package status

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edusync/learnlog/internal/conf"
	"github.com/edusync/learnlog/internal/datastore"
	"github.com/edusync/learnlog/internal/errors"
)

// Command creates the status command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the exam log migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showStatus(settings)
		},
	}
}

func showStatus(settings *conf.Settings) error {
	store := datastore.New(settings)
	if store == nil {
		return errors.Newf("no database output enabled in configuration").
			Component("status").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := store.Open(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	state, err := datastore.NewStateManager(store.GormDB()).GetState()
	if err != nil {
		return err
	}

	fmt.Printf("Status:    %s\n", state.Status)
	fmt.Printf("Progress:  %.1f%% (%d of %d exam logs)\n",
		state.Progress(), state.MigratedExamLogs, state.TotalExamLogs)
	if state.StartedAt != nil {
		fmt.Printf("Started:   %s\n", state.StartedAt.Format(time.RFC3339))
	}
	if state.CompletedAt != nil {
		fmt.Printf("Completed: %s\n", state.CompletedAt.Format(time.RFC3339))
	}
	if state.ErrorMessage != "" {
		fmt.Printf("Error:     %s\n", state.ErrorMessage)
	}
	return nil
}
