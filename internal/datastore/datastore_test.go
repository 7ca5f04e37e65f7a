package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/edusync/learnlog/internal/conf"
)

// newTestStore opens a SQLite store in a temp directory with the target and
// legacy tables created.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "learnlog-test.db")

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.DB.AutoMigrate(&ExamLog{}, &ExamAttemptLog{}))
	return store
}

func testTime(t *testing.T, hour int) time.Time {
	t.Helper()
	return time.Date(2023, 6, 15, hour, 0, 0, 0, time.UTC)
}

func seedSessionLog(t *testing.T, store *SQLiteStore, progress float64, end *time.Time) ContentSessionLog {
	t.Helper()
	log := ContentSessionLog{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ContentID:      uuid.New(),
		StartTimestamp: testTime(t, 8),
		EndTimestamp:   end,
		Progress:       progress,
		Kind:           "quiz",
		DatasetID:      uuid.New(),
	}
	require.NoError(t, store.DB.Create(&log).Error)
	return log
}
