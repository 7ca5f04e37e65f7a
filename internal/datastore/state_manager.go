package datastore

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/edusync/learnlog/internal/errors"
)

// StateManager tracks migration progress in the migration_state singleton row.
// State transitions use guarded SQL updates so that two concurrently started
// processes cannot both believe they own the run.
type StateManager struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewStateManager creates a new migration state manager.
func NewStateManager(db *gorm.DB) *StateManager {
	return &StateManager{db: db}
}

// GetState returns the current migration state.
func (m *StateManager) GetState() (*MigrationState, error) {
	var state MigrationState
	if err := m.db.First(&state).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryState).
			Context("operation", "get_migration_state").
			Build()
	}
	return &state, nil
}

// Begin marks the migration as running and returns the page offset to start
// from. A run interrupted mid-way (state still "migrating") or a failed run
// resumes from its stored offset; completed and fresh runs start from zero.
// Restarting from zero is always safe, the offset is purely an optimization.
func (m *StateManager) Begin(totalExamLogs int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.GetState()
	if err != nil {
		return 0, err
	}

	if state.Status == MigrationStatusMigrating || state.Status == MigrationStatusFailed {
		// Interrupted or failed run, keep the page cursor
		updates := map[string]any{
			"status":          MigrationStatusMigrating,
			"total_exam_logs": totalExamLogs,
			"error_message":   "",
		}
		if err := m.db.Model(&MigrationState{}).Where("id = 1").Updates(updates).Error; err != nil {
			return 0, m.stateError(err, "resume")
		}
		return state.NextOffset, nil
	}

	now := time.Now()
	updates := map[string]any{
		"status":             MigrationStatusMigrating,
		"started_at":         &now,
		"completed_at":       nil,
		"next_offset":        0,
		"total_exam_logs":    totalExamLogs,
		"migrated_exam_logs": 0,
		"error_message":      "",
	}
	result := m.db.Model(&MigrationState{}).
		Where("id = 1 AND status = ?", state.Status).
		Updates(updates)
	if result.Error != nil {
		return 0, m.stateError(result.Error, "begin")
	}
	if result.RowsAffected == 0 {
		return 0, errors.Newf("cannot begin migration: state changed concurrently").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}
	return 0, nil
}

// AdvancePage records that all pages before nextOffset are fully processed.
func (m *StateManager) AdvancePage(nextOffset int, processed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := m.db.Model(&MigrationState{}).
		Where("id = 1 AND status = ?", MigrationStatusMigrating).
		Updates(map[string]any{
			"next_offset":        nextOffset,
			"migrated_exam_logs": gorm.Expr("migrated_exam_logs + ?", processed),
		})
	if result.Error != nil {
		return m.stateError(result.Error, "advance_page")
	}
	if result.RowsAffected == 0 {
		return errors.Newf("cannot record progress: migration is not running").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}
	return nil
}

// Complete transitions the state from migrating to completed.
func (m *StateManager) Complete() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	result := m.db.Model(&MigrationState{}).
		Where("id = 1 AND status = ?", MigrationStatusMigrating).
		Updates(map[string]any{
			"status":       MigrationStatusCompleted,
			"completed_at": &now,
		})
	if result.Error != nil {
		return m.stateError(result.Error, "complete")
	}
	if result.RowsAffected == 0 {
		return errors.Newf("cannot complete migration: migration is not running").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}
	return nil
}

// Fail records a run failure and its cause. The stored offset is kept so a
// later run can resume from the failed page.
func (m *StateManager) Fail(cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	message := ""
	if cause != nil {
		message = cause.Error()
	}
	result := m.db.Model(&MigrationState{}).
		Where("id = 1 AND status = ?", MigrationStatusMigrating).
		Updates(map[string]any{
			"status":        MigrationStatusFailed,
			"error_message": message,
		})
	if result.Error != nil {
		return m.stateError(result.Error, "fail")
	}
	return nil
}

func (m *StateManager) stateError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryState).
		Context("operation", operation).
		Build()
}
