package migration

import (
	"context"

	"github.com/google/uuid"

	"github.com/edusync/learnlog/internal/datastore"
)

// mergeBundle advances the stored session, summary and mastery rows that
// collide with the bundle's derived identities. All three merges are
// monotone: a field only ever moves forward, so replaying an older legacy
// snapshot cannot erase progress recorded by an earlier run.
//
// A run that died between the page's bulk inserts can leave the summary row
// without its session or mastery sibling. The inserts skip existing ids, so
// replaying them here re-creates exactly the missing rows and the advances
// converge as usual; the attempt merge that follows can then always resolve
// its session link.
func (m *Migrator) mergeBundle(ctx context.Context, b *logBundle) error {
	if err := m.store.InsertSessionLogs(ctx, []datastore.ContentSessionLog{b.Session}); err != nil {
		return err
	}
	if err := m.store.InsertMasteryLogs(ctx, []datastore.MasteryLog{b.Mastery}); err != nil {
		return err
	}
	if err := m.store.AdvanceSessionLog(ctx, &b.Session); err != nil {
		return err
	}
	if err := m.store.AdvanceSummaryLog(ctx, &b.Summary); err != nil {
		return err
	}
	return m.store.AdvanceMasteryLog(ctx, &b.Mastery)
}

// mergeAttemptGroup reconciles incoming attempt candidates against the stored
// attempts of one pre-existing mastery log. Candidates with an unseen item are
// genuinely new attempts and are bulk-inserted, linked to the session log
// already associated with the group. Candidates colliding on item follow
// last-write-wins: only a strictly newer end timestamp overwrites the stored
// mutable fields; older or equal candidates are discarded.
func (m *Migrator) mergeAttemptGroup(ctx context.Context, masteryLogID uuid.UUID, incoming []datastore.AttemptLog) error {
	existing, err := m.store.GetAttemptLogsForMastery(ctx, masteryLogID)
	if err != nil {
		return err
	}

	byItem := make(map[string]*datastore.AttemptLog, len(existing))
	for i := range existing {
		byItem[existing[i].Item] = &existing[i]
	}

	// Resolve the session log to link new attempts to: taken from any stored
	// attempt of the group, or failing that via the mastery log's summary log
	// content id and an arbitrary session log for that content.
	var sessionLogID uuid.UUID
	if len(existing) > 0 {
		sessionLogID = existing[0].SessionLogID
	} else {
		contentID, err := m.store.GetContentIDForMasteryLog(ctx, masteryLogID)
		if err != nil {
			return err
		}
		sessionLogID, err = m.store.GetSessionLogIDForContent(ctx, contentID)
		if err != nil {
			return err
		}
	}

	var toCreate []datastore.AttemptLog
	for i := range incoming {
		candidate := incoming[i]
		stored, ok := byItem[candidate.Item]
		if !ok {
			candidate.SessionLogID = sessionLogID
			toCreate = append(toCreate, candidate)
			continue
		}
		if candidate.EndTimestamp.After(stored.EndTimestamp) {
			copyMutableAttemptFields(stored, &candidate)
			if err := m.store.SaveAttemptLog(ctx, stored); err != nil {
				return err
			}
		}
		// Older or equal candidates lose and are dropped.
	}

	return m.store.InsertAttemptLogs(ctx, toCreate)
}

// copyMutableAttemptFields overwrites the fields that may change when a
// legacy attempt is re-delivered. Identity, links, item and start timestamp
// are part of the attempt's key and never move.
func copyMutableAttemptFields(dst, src *datastore.AttemptLog) {
	dst.EndTimestamp = src.EndTimestamp
	dst.CompletionTimestamp = src.CompletionTimestamp
	dst.TimeSpent = src.TimeSpent
	dst.Complete = src.Complete
	dst.Correct = src.Correct
	dst.Hinted = src.Hinted
	dst.Answer = src.Answer
	dst.SimpleAnswer = src.SimpleAnswer
	dst.InteractionHistory = src.InteractionHistory
	dst.Error = src.Error
}
