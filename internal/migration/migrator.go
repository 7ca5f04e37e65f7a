package migration

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edusync/learnlog/internal/datastore"
)

// DefaultPageSize is the default number of legacy exam logs fetched per page.
// Independent of the store's bulk insert chunk sizes.
const DefaultPageSize = 750

// Migrator pages through the legacy exam logs and migrates each page into the
// content logging schema. It runs as one sequential batch job; the store is
// the only shared resource.
type Migrator struct {
	store    datastore.Interface
	state    *datastore.StateManager
	logger   *slog.Logger
	pageSize int
}

// Config configures a Migrator.
type Config struct {
	Store    datastore.Interface
	State    *datastore.StateManager // optional, enables progress tracking and resume
	Logger   *slog.Logger
	PageSize int
}

// New creates a Migrator from the given configuration.
func New(cfg *Config) *Migrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Migrator{
		store:    cfg.Store,
		state:    cfg.State,
		logger:   logger,
		pageSize: pageSize,
	}
}

// Run migrates every legacy exam log into the content logging schema and
// returns when the source is exhausted or on the first error. The run is safe
// to repeat: identities are derived, inserts are classified against the store
// and merges are monotone, so a crashed or failed run simply re-runs.
// Cancellation via ctx takes effect between pages.
func (m *Migrator) Run(ctx context.Context) error {
	started := time.Now()

	total, err := m.store.CountExamLogs(ctx)
	if err != nil {
		return err
	}

	offset := 0
	if m.state != nil {
		offset, err = m.state.Begin(total)
		if err != nil {
			return err
		}
	}

	m.logger.Info("exam log migration started",
		"total_exam_logs", total, "start_offset", offset, "page_size", m.pageSize)

	for {
		select {
		case <-ctx.Done():
			m.fail(ctx.Err())
			return ctx.Err()
		default:
		}

		page, err := m.store.GetExamLogPage(ctx, offset, m.pageSize)
		if err != nil {
			m.fail(err)
			return err
		}
		if len(page) == 0 {
			break
		}

		if err := m.migratePage(ctx, page); err != nil {
			m.fail(err)
			return err
		}

		offset += m.pageSize
		if m.state != nil {
			if err := m.state.AdvancePage(offset, int64(len(page))); err != nil {
				m.logger.Warn("failed to record migration progress", "error", err)
			}
		}
		m.logger.Debug("page migrated", "next_offset", offset, "page_records", len(page))
	}

	if m.state != nil {
		if err := m.state.Complete(); err != nil {
			m.logger.Warn("failed to record migration completion", "error", err)
		}
	}
	m.logger.Info("exam log migration completed",
		"total_exam_logs", total, "elapsed", time.Since(started))
	return nil
}

// migratePage transforms one page of exam logs, classifies the results
// against the store and routes each record through bulk insert or merge.
// All insert-vs-merge decisions for the page come from one existence snapshot
// taken at the start of the page.
func (m *Migrator) migratePage(ctx context.Context, page []datastore.ExamLog) error {
	bundles := make([]*logBundle, 0, len(page))
	for i := range page {
		bundle, err := transformExamLog(&page[i])
		if err != nil {
			return err
		}
		bundles = append(bundles, bundle)
	}

	part, err := classifyBundles(ctx, m.store, bundles)
	if err != nil {
		return err
	}

	sessions := make([]datastore.ContentSessionLog, 0, len(part.toInsert))
	summaries := make([]datastore.ContentSummaryLog, 0, len(part.toInsert))
	masteries := make([]datastore.MasteryLog, 0, len(part.toInsert))
	insertedMasteryIDs := make(map[uuid.UUID]struct{}, len(part.toInsert))
	for _, b := range part.toInsert {
		sessions = append(sessions, b.Session)
		summaries = append(summaries, b.Summary)
		masteries = append(masteries, b.Mastery)
		insertedMasteryIDs[b.Mastery.ID] = struct{}{}
	}

	if err := m.store.InsertSessionLogs(ctx, sessions); err != nil {
		return err
	}
	if err := m.store.InsertSummaryLogs(ctx, summaries); err != nil {
		return err
	}
	if err := m.store.InsertMasteryLogs(ctx, masteries); err != nil {
		return err
	}

	// Attempts are routed by whether their mastery log was inserted in this
	// page, not by the summary existence snapshot: new attempts can arrive
	// for a mastery log that already existed before this run.
	var newAttempts []datastore.AttemptLog
	mergeGroups := make(map[uuid.UUID][]datastore.AttemptLog)
	for _, b := range bundles {
		for _, attempt := range b.Attempts {
			if _, ok := insertedMasteryIDs[attempt.MasteryLogID]; ok {
				newAttempts = append(newAttempts, attempt)
			} else {
				mergeGroups[attempt.MasteryLogID] = append(mergeGroups[attempt.MasteryLogID], attempt)
			}
		}
	}

	if err := m.store.InsertAttemptLogs(ctx, newAttempts); err != nil {
		return err
	}

	for _, b := range part.toMerge {
		if err := m.mergeBundle(ctx, b); err != nil {
			return err
		}
	}
	for masteryLogID, group := range mergeGroups {
		if err := m.mergeAttemptGroup(ctx, masteryLogID, group); err != nil {
			return err
		}
	}

	return nil
}

// fail records the failure in the migration state, best effort.
func (m *Migrator) fail(cause error) {
	m.logger.Error("exam log migration failed", "error", cause)
	if m.state == nil {
		return
	}
	if err := m.state.Fail(cause); err != nil {
		m.logger.Warn("failed to record migration failure", "error", err)
	}
}
