package datastore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/edusync/learnlog/internal/errors"
)

// performAutoMigration creates or updates the target log tables and the
// migration state singleton. The legacy exam tables are deliberately left
// untouched; they belong to the source system.
func performAutoMigration(db *gorm.DB, dbType string) error {
	err := db.AutoMigrate(
		&ContentSessionLog{},
		&ContentSummaryLog{},
		&MasteryLog{},
		&AttemptLog{},
		&MigrationState{},
	)
	if err != nil {
		return errors.New(fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	// Initialize migration state singleton, FirstOrCreate handles re-runs
	state := MigrationState{ID: 1, Status: MigrationStatusIdle}
	if err := db.FirstOrCreate(&state, MigrationState{ID: 1}).Error; err != nil {
		return errors.New(fmt.Errorf("failed to initialize migration state: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	getLogger().Info("database schema ready", "db_type", dbType)
	return nil
}
