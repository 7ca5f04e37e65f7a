// legacy.go defines the read-only legacy exam schema and its paged access.
//
// The exam tables are the migration source. They are never mutated and never
// auto-migrated by this tool; the rows are expected to exist already.
package datastore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/edusync/learnlog/internal/errors"
)

// ExamLog is a legacy exam completion record for one user.
type ExamLog struct {
	ID                  uuid.UUID `gorm:"type:char(36);primaryKey"`
	ExamID              uuid.UUID `gorm:"type:char(36);index:idx_exam_logs_exam;not null"`
	UserID              uuid.UUID `gorm:"type:char(36);index:idx_exam_logs_user;not null"`
	Closed              bool      `gorm:"not null;default:false"`
	CompletionTimestamp *time.Time
	DatasetID           uuid.UUID        `gorm:"type:char(36)"`
	Attempts            []ExamAttemptLog `gorm:"foreignKey:ExamLogID"`
}

// TableName returns the table name for GORM.
func (ExamLog) TableName() string {
	return "exam_logs"
}

// ExamAttemptLog is a legacy per-item answer attempt belonging to an ExamLog.
type ExamAttemptLog struct {
	ID                  uuid.UUID `gorm:"type:char(36);primaryKey"`
	ExamLogID           uuid.UUID `gorm:"type:char(36);index:idx_exam_attempt_logs_exam_log;not null"`
	UserID              uuid.UUID `gorm:"type:char(36)"`
	Item                string    `gorm:"type:varchar(200);not null"`
	ContentID           uuid.UUID `gorm:"type:char(36);not null"`
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
	DatasetID           uuid.UUID `gorm:"type:char(36)"`
}

// TableName returns the table name for GORM.
func (ExamAttemptLog) TableName() string {
	return "exam_attempt_logs"
}

// CountExamLogs returns the total number of legacy exam logs.
func (ds *DataStore) CountExamLogs(ctx context.Context) (int64, error) {
	var count int64
	if err := ds.DB.WithContext(ctx).Model(&ExamLog{}).Count(&count).Error; err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "count_exam_logs").
			Build()
	}
	return count, nil
}

// GetExamLogPage fetches one fixed-size page of exam logs with their attempt
// children preloaded in a single extra round trip. Pages are ordered by id so
// that offsets are stable across calls.
func (ds *DataStore) GetExamLogPage(ctx context.Context, offset, limit int) ([]ExamLog, error) {
	var logs []ExamLog
	err := ds.DB.WithContext(ctx).
		Preload("Attempts").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_exam_log_page").
			Context("offset", offset).
			Context("limit", limit).
			Build()
	}
	return logs, nil
}
