package migration

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/edusync/learnlog/internal/datastore"
	"github.com/edusync/learnlog/internal/errors"
)

// logKindQuiz is the content kind recorded on migrated session and summary logs.
const logKindQuiz = "quiz"

// masteryCriterionQuiz returns the mastery criterion for migrated quizzes.
func masteryCriterionQuiz() datatypes.JSON {
	return datatypes.JSON(`{"type":"quiz"}`)
}

// logBundle holds the four target records produced from one legacy exam log.
// Session, summary and mastery log are created and merged as a unit; attempts
// are routed separately by the driver.
type logBundle struct {
	Session  datastore.ContentSessionLog
	Summary  datastore.ContentSummaryLog
	Mastery  datastore.MasteryLog
	Attempts []datastore.AttemptLog
}

// transformExamLog maps one legacy exam log and its attempt children onto one
// session log, one summary log, one mastery log and one attempt log per child,
// with all identities derived and cross-links already assigned.
//
// An exam log without attempts is a data integrity violation: the start
// timestamp is the minimum over the children, which is undefined for an empty
// set. The error aborts the whole run rather than skipping the record.
func transformExamLog(examLog *datastore.ExamLog) (*logBundle, error) {
	if len(examLog.Attempts) == 0 {
		return nil, errors.Newf("exam log %s has no attempt logs", examLog.ID).
			Component("migration").
			Category(errors.CategoryValidation).
			Context("exam_log_id", examLog.ID.String()).
			Context("user_id", examLog.UserID.String()).
			Build()
	}

	startTimestamp := examLog.Attempts[0].StartTimestamp
	for i := range examLog.Attempts[1:] {
		if ts := examLog.Attempts[i+1].StartTimestamp; ts.Before(startTimestamp) {
			startTimestamp = ts
		}
	}

	contentID := examLog.ExamID
	progress := 0.0
	if examLog.Closed {
		progress = 1.0
	}
	endTimestamp := copyTime(examLog.CompletionTimestamp)
	completionTimestamp := copyTime(examLog.CompletionTimestamp)

	session := datastore.ContentSessionLog{
		ID:             deriveSessionLogID(examLog.UserID, contentID),
		UserID:         examLog.UserID,
		ContentID:      contentID,
		StartTimestamp: startTimestamp,
		EndTimestamp:   endTimestamp,
		Progress:       progress,
		Kind:           logKindQuiz,
		DatasetID:      examLog.DatasetID,
	}

	summary := datastore.ContentSummaryLog{
		ID:                  deriveSummaryLogID(examLog.UserID, contentID),
		UserID:              examLog.UserID,
		ContentID:           contentID,
		StartTimestamp:      startTimestamp,
		EndTimestamp:        copyTime(examLog.CompletionTimestamp),
		CompletionTimestamp: completionTimestamp,
		Progress:            progress,
		Kind:                logKindQuiz,
		DatasetID:           examLog.DatasetID,
	}

	mastery := datastore.MasteryLog{
		ID:                  deriveMasteryLogID(examLog.UserID, summary.ID),
		UserID:              examLog.UserID,
		SummaryLogID:        summary.ID,
		MasteryCriterion:    masteryCriterionQuiz(),
		StartTimestamp:      startTimestamp,
		EndTimestamp:        copyTime(examLog.CompletionTimestamp),
		CompletionTimestamp: copyTime(examLog.CompletionTimestamp),
		MasteryLevel:        masteryLevel(contentID),
		Complete:            examLog.Closed,
		DatasetID:           examLog.DatasetID,
	}

	attempts := make([]datastore.AttemptLog, 0, len(examLog.Attempts))
	for i := range examLog.Attempts {
		attempts = append(attempts, transformExamAttempt(&examLog.Attempts[i], session.ID, mastery.ID))
	}

	return &logBundle{
		Session:  session,
		Summary:  summary,
		Mastery:  mastery,
		Attempts: attempts,
	}, nil
}

// transformExamAttempt copies the behavioral fields of one legacy attempt,
// rewrites item to the composite "<content_id>:<item>" key and replaces the
// legacy identity with a derived one. The legacy exam log link and content
// scoping field are dropped; the content scoping survives inside the item key.
func transformExamAttempt(attempt *datastore.ExamAttemptLog, sessionLogID, masteryLogID uuid.UUID) datastore.AttemptLog {
	item := fmt.Sprintf("%s:%s", hexID(attempt.ContentID), attempt.Item)
	return datastore.AttemptLog{
		ID:                  deriveAttemptLogID(masteryLogID, item),
		Item:                item,
		SessionLogID:        sessionLogID,
		MasteryLogID:        masteryLogID,
		UserID:              attempt.UserID,
		StartTimestamp:      attempt.StartTimestamp,
		EndTimestamp:        attempt.EndTimestamp,
		CompletionTimestamp: copyTime(attempt.CompletionTimestamp),
		TimeSpent:           attempt.TimeSpent,
		Complete:            attempt.Complete,
		Correct:             attempt.Correct,
		Hinted:              attempt.Hinted,
		Answer:              attempt.Answer,
		SimpleAnswer:        attempt.SimpleAnswer,
		InteractionHistory:  attempt.InteractionHistory,
		Error:               attempt.Error,
		DatasetID:           attempt.DatasetID,
	}
}

// copyTime clones an optional timestamp so target records never alias the
// read-only legacy rows.
func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
