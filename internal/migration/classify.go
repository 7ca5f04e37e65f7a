package migration

import (
	"context"

	"github.com/google/uuid"

	"github.com/edusync/learnlog/internal/datastore"
)

// partition is the result of splitting one page's bundles by existence.
type partition struct {
	toInsert []*logBundle
	toMerge  []*logBundle
}

// classifyBundles asks the store which of the candidate summary log ids
// already exist and routes every bundle accordingly. Summary log existence
// stands in for "this exam log was already migrated": session, summary and
// mastery logs are created and merged as a unit, so one check covers all
// three. Attempt logs are deliberately not classified here; the driver routes
// them by which mastery logs were actually inserted in the current page.
func classifyBundles(ctx context.Context, store datastore.Interface, bundles []*logBundle) (*partition, error) {
	ids := make([]uuid.UUID, 0, len(bundles))
	for _, b := range bundles {
		ids = append(ids, b.Summary.ID)
	}

	existing, err := store.ExistingSummaryLogIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	part := &partition{}
	for _, b := range bundles {
		if _, ok := existing[b.Summary.ID]; ok {
			part.toMerge = append(part.toMerge, b)
		} else {
			part.toInsert = append(part.toInsert, b)
		}
	}
	return part, nil
}
