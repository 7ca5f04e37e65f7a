// logs.go implements the bulk and merge operations on the target log tables.
package datastore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/edusync/learnlog/internal/errors"
)

// mysqlBulkBatchSize is the fixed bulk insert chunk size for stores without a
// low bound-parameter ceiling.
const mysqlBulkBatchSize = 750

// sqliteMaxQueryParams is SQLite's historical SQLITE_MAX_VARIABLE_NUMBER
// bound. Newer SQLite builds allow far more, but the conservative value keeps
// bulk statements valid everywhere.
const sqliteMaxQueryParams = 999

// schemaCache caches parsed GORM schemas for bulk batch sizing.
var schemaCache = &sync.Map{}

// bulkBatchSize returns the insert chunk size for one entity kind: the
// parameter ceiling divided by the entity's column count on SQLite, a fixed
// moderate constant elsewhere.
func (ds *DataStore) bulkBatchSize(model any) int {
	if ds.DB.Dialector.Name() != "sqlite" {
		return mysqlBulkBatchSize
	}
	sch, err := schema.Parse(model, schemaCache, ds.DB.NamingStrategy)
	if err != nil || len(sch.DBNames) == 0 {
		return mysqlBulkBatchSize
	}
	return sqliteMaxQueryParams / len(sch.DBNames)
}

// queryChunkSize returns the chunk size for IN queries over id lists.
func (ds *DataStore) queryChunkSize() int {
	if ds.DB.Dialector.Name() == "sqlite" {
		return sqliteMaxQueryParams
	}
	return mysqlBulkBatchSize
}

func (ds *DataStore) bulkInsertError(err error, entity string, count int) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", "bulk_insert").
		Context("entity", entity).
		Context("count", count).
		Build()
}

// insertIgnoreExisting skips rows whose primary key already exists. Ids are
// derived from logical keys, so a colliding row is the same logical record
// written by an earlier, possibly partially committed run; replaying the
// insert must not fail or overwrite it.
func (ds *DataStore) insertIgnoreExisting(ctx context.Context) *gorm.DB {
	return ds.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})
}

// InsertSessionLogs bulk-inserts new content session logs.
func (ds *DataStore) InsertSessionLogs(ctx context.Context, logs []ContentSessionLog) error {
	if len(logs) == 0 {
		return nil
	}
	if err := ds.insertIgnoreExisting(ctx).CreateInBatches(logs, ds.bulkBatchSize(&ContentSessionLog{})).Error; err != nil {
		return ds.bulkInsertError(err, "content_session_log", len(logs))
	}
	return nil
}

// InsertSummaryLogs bulk-inserts new content summary logs.
func (ds *DataStore) InsertSummaryLogs(ctx context.Context, logs []ContentSummaryLog) error {
	if len(logs) == 0 {
		return nil
	}
	if err := ds.insertIgnoreExisting(ctx).CreateInBatches(logs, ds.bulkBatchSize(&ContentSummaryLog{})).Error; err != nil {
		return ds.bulkInsertError(err, "content_summary_log", len(logs))
	}
	return nil
}

// InsertMasteryLogs bulk-inserts new mastery logs.
func (ds *DataStore) InsertMasteryLogs(ctx context.Context, logs []MasteryLog) error {
	if len(logs) == 0 {
		return nil
	}
	if err := ds.insertIgnoreExisting(ctx).CreateInBatches(logs, ds.bulkBatchSize(&MasteryLog{})).Error; err != nil {
		return ds.bulkInsertError(err, "mastery_log", len(logs))
	}
	return nil
}

// InsertAttemptLogs bulk-inserts new attempt logs.
func (ds *DataStore) InsertAttemptLogs(ctx context.Context, logs []AttemptLog) error {
	if len(logs) == 0 {
		return nil
	}
	if err := ds.insertIgnoreExisting(ctx).CreateInBatches(logs, ds.bulkBatchSize(&AttemptLog{})).Error; err != nil {
		return ds.bulkInsertError(err, "attempt_log", len(logs))
	}
	return nil
}

// ExistingSummaryLogIDs returns the subset of the given summary log ids that
// are already present in the store, as a set.
func (ds *DataStore) ExistingSummaryLogIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	existing := make(map[uuid.UUID]struct{}, len(ids))
	chunkSize := ds.queryChunkSize()
	for start := 0; start < len(ids); start += chunkSize {
		end := min(start+chunkSize, len(ids))
		var found []uuid.UUID
		err := ds.DB.WithContext(ctx).
			Model(&ContentSummaryLog{}).
			Where("id IN ?", ids[start:end]).
			Pluck("id", &found).Error
		if err != nil {
			return nil, errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "existing_summary_log_ids").
				Context("candidates", len(ids)).
				Build()
		}
		for _, id := range found {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

// GetAttemptLogsForMastery returns all attempt logs belonging to one mastery log.
func (ds *DataStore) GetAttemptLogsForMastery(ctx context.Context, masteryLogID uuid.UUID) ([]AttemptLog, error) {
	var logs []AttemptLog
	err := ds.DB.WithContext(ctx).
		Where("mastery_log_id = ?", masteryLogID).
		Order("id").
		Find(&logs).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_attempt_logs_for_mastery").
			Context("mastery_log_id", masteryLogID.String()).
			Build()
	}
	return logs, nil
}

// GetSessionLogIDForContent returns the id of one session log for the given
// content id. Which one is unspecified; callers only need a valid link target.
func (ds *DataStore) GetSessionLogIDForContent(ctx context.Context, contentID uuid.UUID) (uuid.UUID, error) {
	var log ContentSessionLog
	err := ds.DB.WithContext(ctx).
		Select("id").
		Where("content_id = ?", contentID).
		Order("id").
		First(&log).Error
	if err != nil {
		category := errors.CategoryDatabase
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = errors.CategoryNotFound
		}
		return uuid.Nil, errors.New(err).
			Component("datastore").
			Category(category).
			Context("operation", "get_session_log_id_for_content").
			Context("content_id", contentID.String()).
			Build()
	}
	return log.ID, nil
}

// GetContentIDForMasteryLog resolves a mastery log to the content id of its
// owning summary log.
func (ds *DataStore) GetContentIDForMasteryLog(ctx context.Context, masteryLogID uuid.UUID) (uuid.UUID, error) {
	var summary ContentSummaryLog
	err := ds.DB.WithContext(ctx).
		Select("content_summary_logs.content_id").
		Joins("JOIN mastery_logs ON mastery_logs.summary_log_id = content_summary_logs.id").
		Where("mastery_logs.id = ?", masteryLogID).
		First(&summary).Error
	if err != nil {
		category := errors.CategoryDatabase
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = errors.CategoryNotFound
		}
		return uuid.Nil, errors.New(err).
			Component("datastore").
			Category(category).
			Context("operation", "get_content_id_for_mastery_log").
			Context("mastery_log_id", masteryLogID.String()).
			Build()
	}
	return summary.ContentID, nil
}

// greatestExpr builds a dialect-appropriate expression advancing a non-null
// column to the maximum of its stored value and the given one. SQLite spells
// two-argument GREATEST as scalar MAX.
func (ds *DataStore) greatestExpr(column string, value any) clause.Expr {
	if ds.DB.Dialector.Name() == "sqlite" {
		return gorm.Expr(fmt.Sprintf("MAX(%s, ?)", column), value)
	}
	return gorm.Expr(fmt.Sprintf("GREATEST(%s, ?)", column), value)
}

// greatestNullableExpr is greatestExpr for columns that may hold NULL: a NULL
// stored value is treated as older than any incoming value.
func (ds *DataStore) greatestNullableExpr(column string, value any) clause.Expr {
	if ds.DB.Dialector.Name() == "sqlite" {
		return gorm.Expr(fmt.Sprintf("MAX(COALESCE(%s, ?), ?)", column), value, value)
	}
	return gorm.Expr(fmt.Sprintf("GREATEST(COALESCE(%s, ?), ?)", column), value, value)
}

func (ds *DataStore) advance(ctx context.Context, model any, id uuid.UUID, entity string, updates map[string]any) error {
	err := ds.DB.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "advance").
			Context("entity", entity).
			Context("id", id.String()).
			Build()
	}
	return nil
}

// AdvanceSessionLog merges an incoming session log into the stored row with
// the same id, advancing progress and end timestamp monotonically.
func (ds *DataStore) AdvanceSessionLog(ctx context.Context, log *ContentSessionLog) error {
	updates := map[string]any{
		"progress": ds.greatestExpr("progress", log.Progress),
	}
	if log.EndTimestamp != nil {
		updates["end_timestamp"] = ds.greatestNullableExpr("end_timestamp", *log.EndTimestamp)
	}
	return ds.advance(ctx, &ContentSessionLog{}, log.ID, "content_session_log", updates)
}

// AdvanceSummaryLog merges an incoming summary log into the stored row with
// the same id, advancing progress, end and completion timestamps monotonically.
func (ds *DataStore) AdvanceSummaryLog(ctx context.Context, log *ContentSummaryLog) error {
	updates := map[string]any{
		"progress": ds.greatestExpr("progress", log.Progress),
	}
	if log.EndTimestamp != nil {
		updates["end_timestamp"] = ds.greatestNullableExpr("end_timestamp", *log.EndTimestamp)
	}
	if log.CompletionTimestamp != nil {
		updates["completion_timestamp"] = ds.greatestNullableExpr("completion_timestamp", *log.CompletionTimestamp)
	}
	return ds.advance(ctx, &ContentSummaryLog{}, log.ID, "content_summary_log", updates)
}

// AdvanceMasteryLog merges an incoming mastery log into the stored row with
// the same id, advancing complete, end and completion timestamps
// monotonically. Complete compares as 0/1.
func (ds *DataStore) AdvanceMasteryLog(ctx context.Context, log *MasteryLog) error {
	updates := map[string]any{
		"complete": ds.greatestExpr("complete", log.Complete),
	}
	if log.EndTimestamp != nil {
		updates["end_timestamp"] = ds.greatestNullableExpr("end_timestamp", *log.EndTimestamp)
	}
	if log.CompletionTimestamp != nil {
		updates["completion_timestamp"] = ds.greatestNullableExpr("completion_timestamp", *log.CompletionTimestamp)
	}
	return ds.advance(ctx, &MasteryLog{}, log.ID, "mastery_log", updates)
}

// SaveAttemptLog persists the full row of an existing attempt log after a
// last-write-wins merge.
func (ds *DataStore) SaveAttemptLog(ctx context.Context, log *AttemptLog) error {
	if err := ds.DB.WithContext(ctx).Save(log).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_attempt_log").
			Context("id", log.ID.String()).
			Build()
	}
	return nil
}
