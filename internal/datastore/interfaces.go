// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edusync/learnlog/internal/conf"
	"github.com/edusync/learnlog/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// store operations used by the exam log migration.
type Interface interface {
	Open() error
	Close() error
	GormDB() *gorm.DB

	// Legacy source, read-only
	CountExamLogs(ctx context.Context) (int64, error)
	GetExamLogPage(ctx context.Context, offset, limit int) ([]ExamLog, error)

	// Bulk inserts, chunked to respect the store's parameter ceiling
	InsertSessionLogs(ctx context.Context, logs []ContentSessionLog) error
	InsertSummaryLogs(ctx context.Context, logs []ContentSummaryLog) error
	InsertMasteryLogs(ctx context.Context, logs []MasteryLog) error
	InsertAttemptLogs(ctx context.Context, logs []AttemptLog) error

	// Existence and lookup queries
	ExistingSummaryLogIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]struct{}, error)
	GetAttemptLogsForMastery(ctx context.Context, masteryLogID uuid.UUID) ([]AttemptLog, error)
	GetSessionLogIDForContent(ctx context.Context, contentID uuid.UUID) (uuid.UUID, error)
	GetContentIDForMasteryLog(ctx context.Context, masteryLogID uuid.UUID) (uuid.UUID, error)

	// Monotone merges, fields only ever advance
	AdvanceSessionLog(ctx context.Context, log *ContentSessionLog) error
	AdvanceSummaryLog(ctx context.Context, log *ContentSummaryLog) error
	AdvanceMasteryLog(ctx context.Context, log *MasteryLog) error

	// Per-row attempt update for last-write-wins merges
	SaveAttemptLog(ctx context.Context, log *AttemptLog) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new store instance based on the provided settings.
// Returns nil if no database output is enabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// GormDB exposes the underlying GORM database, mainly for the migration
// state manager and for test setup.
func (ds *DataStore) GormDB() *gorm.DB {
	return ds.DB
}

// Close closes the underlying database connection.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "close").
			Build()
	}
	return sqlDB.Close()
}
