// model.go defines the target logging schema the migration writes into.
package datastore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ContentSessionLog records one viewing/interaction session with a piece of
// content. Migrated quiz sessions carry kind "quiz".
type ContentSessionLog struct {
	ID             uuid.UUID  `gorm:"type:char(36);primaryKey"`
	UserID         uuid.UUID  `gorm:"type:char(36);index:idx_session_logs_user;not null"`
	ContentID      uuid.UUID  `gorm:"type:char(36);index:idx_session_logs_content;not null"`
	ChannelID      *uuid.UUID `gorm:"type:char(36)"`
	StartTimestamp time.Time  `gorm:"not null"`
	EndTimestamp   *time.Time
	Progress       float64   `gorm:"not null;default:0"`
	Kind           string    `gorm:"type:varchar(50)"`
	DatasetID      uuid.UUID `gorm:"type:char(36);index:idx_session_logs_dataset"`
}

// ContentSummaryLog aggregates all of a user's sessions with one piece of
// content. Its id is derived from the same logical key as the session log but
// in an independent identity space.
type ContentSummaryLog struct {
	ID                  uuid.UUID  `gorm:"type:char(36);primaryKey"`
	UserID              uuid.UUID  `gorm:"type:char(36);index:idx_summary_logs_user;not null"`
	ContentID           uuid.UUID  `gorm:"type:char(36);index:idx_summary_logs_content;not null"`
	ChannelID           *uuid.UUID `gorm:"type:char(36)"`
	StartTimestamp      time.Time  `gorm:"not null"`
	EndTimestamp        *time.Time
	CompletionTimestamp *time.Time
	Progress            float64   `gorm:"not null;default:0"`
	Kind                string    `gorm:"type:varchar(50)"`
	DatasetID           uuid.UUID `gorm:"type:char(36);index:idx_summary_logs_dataset"`
}

// MasteryLog tracks one attempt at satisfying a mastery criterion for a piece
// of content. Migrated quizzes use the criterion {"type": "quiz"}.
type MasteryLog struct {
	ID                  uuid.UUID      `gorm:"type:char(36);primaryKey"`
	UserID              uuid.UUID      `gorm:"type:char(36);index:idx_mastery_logs_user;not null"`
	SummaryLogID        uuid.UUID      `gorm:"type:char(36);index:idx_mastery_logs_summary;not null"`
	MasteryCriterion    datatypes.JSON `gorm:"not null"`
	StartTimestamp      time.Time      `gorm:"not null"`
	EndTimestamp        *time.Time
	CompletionTimestamp *time.Time
	MasteryLevel        int       `gorm:"not null"`
	Complete            bool      `gorm:"not null;default:false"`
	DatasetID           uuid.UUID `gorm:"type:char(36);index:idx_mastery_logs_dataset"`
}

// AttemptLog records one answer attempt at a single item within a mastery log.
// Item is unique only within its mastery log; the pair identifies the logical
// attempt across runs.
type AttemptLog struct {
	ID                  uuid.UUID `gorm:"type:char(36);primaryKey"`
	Item                string    `gorm:"type:varchar(200);index:idx_attempt_logs_mastery_item,priority:2;not null"`
	SessionLogID        uuid.UUID `gorm:"type:char(36);index:idx_attempt_logs_session;not null"`
	MasteryLogID        uuid.UUID `gorm:"type:char(36);index:idx_attempt_logs_mastery_item,priority:1;not null"`
	UserID              uuid.UUID `gorm:"type:char(36);index:idx_attempt_logs_user"`
	StartTimestamp      time.Time `gorm:"not null"`
	EndTimestamp        time.Time `gorm:"not null"`
	CompletionTimestamp *time.Time
	TimeSpent           float64 `gorm:"not null;default:0"`
	Complete            bool    `gorm:"not null;default:false"`
	Correct             float64 `gorm:"not null;default:0"`
	Hinted              bool    `gorm:"not null;default:false"`
	Answer              datatypes.JSON
	SimpleAnswer        string `gorm:"type:text"`
	InteractionHistory  datatypes.JSON
	Error               bool      `gorm:"not null;default:false"`
	DatasetID           uuid.UUID `gorm:"type:char(36);index:idx_attempt_logs_dataset"`
}

// MigrationStatus represents the state of the exam log migration.
type MigrationStatus string

const (
	MigrationStatusIdle      MigrationStatus = "idle"
	MigrationStatusMigrating MigrationStatus = "migrating"
	MigrationStatusCompleted MigrationStatus = "completed"
	MigrationStatusFailed    MigrationStatus = "failed"
)

// MigrationState tracks the progress of the exam log migration.
// This is a singleton table (only one row with ID=1).
type MigrationState struct {
	ID               uint            `gorm:"primaryKey;check:id = 1"` // Singleton constraint
	Status           MigrationStatus `gorm:"type:varchar(20);not null;default:'idle'"`
	StartedAt        *time.Time
	CompletedAt      *time.Time
	NextOffset       int       `gorm:"default:0"` // Offset of the first page not yet fully processed
	TotalExamLogs    int64     `gorm:"default:0"` // Total exam logs found at run start
	MigratedExamLogs int64     `gorm:"default:0"` // Exam logs processed so far
	ErrorMessage     string    `gorm:"type:text"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (MigrationState) TableName() string {
	return "migration_state"
}

// Progress returns the migration progress as a percentage (0-100).
func (m *MigrationState) Progress() float64 {
	if m.TotalExamLogs == 0 {
		return 0
	}
	return float64(m.MigratedExamLogs) / float64(m.TotalExamLogs) * 100
}

// IsActive returns true if a migration run is currently in progress.
func (m *MigrationState) IsActive() bool {
	return m.Status == MigrationStatusMigrating
}
