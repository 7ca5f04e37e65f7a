package migration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/edusync/learnlog/internal/datastore"
	"github.com/edusync/learnlog/internal/errors"
)

func newExamLog(t *testing.T, closed bool, attempts ...datastore.ExamAttemptLog) *datastore.ExamLog {
	t.Helper()
	examLog := &datastore.ExamLog{
		ID:        uuid.New(),
		ExamID:    uuid.New(),
		UserID:    uuid.New(),
		Closed:    closed,
		DatasetID: uuid.New(),
	}
	for i := range attempts {
		attempts[i].ID = uuid.New()
		attempts[i].ExamLogID = examLog.ID
		attempts[i].UserID = examLog.UserID
		attempts[i].ContentID = examLog.ExamID
		attempts[i].DatasetID = examLog.DatasetID
	}
	examLog.Attempts = attempts
	return examLog
}

func TestTransformExamLog_NoAttemptsIsValidationError(t *testing.T) {
	examLog := newExamLog(t, true)

	bundle, err := transformExamLog(examLog)
	require.Error(t, err)
	assert.Nil(t, bundle)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Contains(t, err.Error(), examLog.ID.String())
}

func TestTransformExamLog_LinksAndIdentity(t *testing.T) {
	start := time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	examLog := newExamLog(t, true,
		datastore.ExamAttemptLog{Item: "q1", StartTimestamp: start, EndTimestamp: end},
		datastore.ExamAttemptLog{Item: "q2", StartTimestamp: start.Add(time.Minute), EndTimestamp: end},
	)
	completed := end.Add(time.Minute)
	examLog.CompletionTimestamp = &completed

	bundle, err := transformExamLog(examLog)
	require.NoError(t, err)

	assert.Equal(t, deriveSessionLogID(examLog.UserID, examLog.ExamID), bundle.Session.ID)
	assert.Equal(t, deriveSummaryLogID(examLog.UserID, examLog.ExamID), bundle.Summary.ID)
	assert.Equal(t, deriveMasteryLogID(examLog.UserID, bundle.Summary.ID), bundle.Mastery.ID)
	assert.Equal(t, bundle.Summary.ID, bundle.Mastery.SummaryLogID)
	assert.Equal(t, masteryLevel(examLog.ExamID), bundle.Mastery.MasteryLevel)
	assert.JSONEq(t, `{"type":"quiz"}`, string(bundle.Mastery.MasteryCriterion))

	require.Len(t, bundle.Attempts, 2)
	for i := range bundle.Attempts {
		attempt := &bundle.Attempts[i]
		assert.Equal(t, bundle.Session.ID, attempt.SessionLogID)
		assert.Equal(t, bundle.Mastery.ID, attempt.MasteryLogID)
		assert.Equal(t, deriveAttemptLogID(bundle.Mastery.ID, attempt.Item), attempt.ID)
	}
}

func TestTransformExamLog_StartIsEarliestAttemptStart(t *testing.T) {
	earliest := time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC)
	examLog := newExamLog(t, false,
		datastore.ExamAttemptLog{Item: "q1", StartTimestamp: earliest.Add(2 * time.Hour), EndTimestamp: earliest.Add(3 * time.Hour)},
		datastore.ExamAttemptLog{Item: "q2", StartTimestamp: earliest, EndTimestamp: earliest.Add(time.Hour)},
		datastore.ExamAttemptLog{Item: "q3", StartTimestamp: earliest.Add(time.Hour), EndTimestamp: earliest.Add(2 * time.Hour)},
	)

	bundle, err := transformExamLog(examLog)
	require.NoError(t, err)

	assert.True(t, bundle.Session.StartTimestamp.Equal(earliest))
	assert.True(t, bundle.Summary.StartTimestamp.Equal(earliest))
	assert.True(t, bundle.Mastery.StartTimestamp.Equal(earliest))
}

func TestTransformExamLog_ProgressAndCompletion(t *testing.T) {
	now := time.Now().UTC()
	completed := now.Add(time.Hour)

	open := newExamLog(t, false,
		datastore.ExamAttemptLog{Item: "q1", StartTimestamp: now, EndTimestamp: now})
	bundle, err := transformExamLog(open)
	require.NoError(t, err)
	assert.Zero(t, bundle.Session.Progress)
	assert.Zero(t, bundle.Summary.Progress)
	assert.False(t, bundle.Mastery.Complete)
	assert.Nil(t, bundle.Session.EndTimestamp)
	assert.Nil(t, bundle.Summary.CompletionTimestamp)

	closed := newExamLog(t, true,
		datastore.ExamAttemptLog{Item: "q1", StartTimestamp: now, EndTimestamp: now})
	closed.CompletionTimestamp = &completed
	bundle, err = transformExamLog(closed)
	require.NoError(t, err)
	assert.Equal(t, 1.0, bundle.Session.Progress)
	assert.Equal(t, 1.0, bundle.Summary.Progress)
	assert.True(t, bundle.Mastery.Complete)
	require.NotNil(t, bundle.Session.EndTimestamp)
	assert.True(t, bundle.Session.EndTimestamp.Equal(completed))
	require.NotNil(t, bundle.Summary.CompletionTimestamp)
	assert.True(t, bundle.Summary.CompletionTimestamp.Equal(completed))
}

func TestTransformExamLog_TimestampsDoNotAliasLegacyRow(t *testing.T) {
	now := time.Now().UTC()
	completed := now.Add(time.Hour)
	examLog := newExamLog(t, true,
		datastore.ExamAttemptLog{Item: "q1", StartTimestamp: now, EndTimestamp: now, CompletionTimestamp: &completed})
	examLog.CompletionTimestamp = &completed

	bundle, err := transformExamLog(examLog)
	require.NoError(t, err)

	assert.NotSame(t, examLog.CompletionTimestamp, bundle.Session.EndTimestamp)
	assert.NotSame(t, examLog.CompletionTimestamp, bundle.Summary.CompletionTimestamp)
	assert.NotSame(t, examLog.CompletionTimestamp, bundle.Mastery.CompletionTimestamp)
	assert.NotSame(t, examLog.Attempts[0].CompletionTimestamp, bundle.Attempts[0].CompletionTimestamp)
}

func TestTransformExamAttempt_CompositeItemAndFieldCopy(t *testing.T) {
	contentID := uuid.MustParse("00010203-0405-0607-0809-0a0b0c0d0e0f")
	now := time.Now().UTC()
	attempt := &datastore.ExamAttemptLog{
		ID:                 uuid.New(),
		ExamLogID:          uuid.New(),
		UserID:             uuid.New(),
		Item:               "question-7",
		ContentID:          contentID,
		StartTimestamp:     now,
		EndTimestamp:       now.Add(time.Minute),
		TimeSpent:          42.5,
		Complete:           true,
		Correct:            1,
		Hinted:             true,
		Answer:             datatypes.JSON(`{"value":3}`),
		SimpleAnswer:       "3",
		InteractionHistory: datatypes.JSON(`[{"type":"answer"}]`),
		Error:              false,
		DatasetID:          uuid.New(),
	}

	sessionLogID := uuid.New()
	masteryLogID := uuid.New()
	got := transformExamAttempt(attempt, sessionLogID, masteryLogID)

	assert.Equal(t, "000102030405060708090a0b0c0d0e0f:question-7", got.Item)
	assert.Equal(t, deriveAttemptLogID(masteryLogID, got.Item), got.ID)
	assert.NotEqual(t, attempt.ID, got.ID)
	assert.Equal(t, sessionLogID, got.SessionLogID)
	assert.Equal(t, masteryLogID, got.MasteryLogID)
	assert.Equal(t, attempt.UserID, got.UserID)
	assert.True(t, got.StartTimestamp.Equal(attempt.StartTimestamp))
	assert.True(t, got.EndTimestamp.Equal(attempt.EndTimestamp))
	assert.Equal(t, attempt.TimeSpent, got.TimeSpent)
	assert.Equal(t, attempt.Complete, got.Complete)
	assert.Equal(t, attempt.Correct, got.Correct)
	assert.Equal(t, attempt.Hinted, got.Hinted)
	assert.Equal(t, attempt.Answer, got.Answer)
	assert.Equal(t, attempt.SimpleAnswer, got.SimpleAnswer)
	assert.Equal(t, attempt.InteractionHistory, got.InteractionHistory)
	assert.Equal(t, attempt.Error, got.Error)
	assert.Equal(t, attempt.DatasetID, got.DatasetID)
}
