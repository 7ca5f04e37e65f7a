// Package migration migrates legacy exam logs into the content logging schema.
//
// The migration is idempotent: every produced record's id is a pure function
// of its logical key, so re-running over the same source converges on the
// same rows instead of duplicating them.
package migration

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// Identity kind prefixes. These strings are part of the identity contract:
// changing any of them changes every derived id and breaks convergence with
// records produced by earlier runs.
const (
	kindSessionLog = "contentsessionlog"
	kindSummaryLog = "contentsummarylog"
	kindMasteryLog = "masterylog"
	kindAttemptLog = "attemptlog"
)

// idNamespace is the UUIDv5 namespace for all derived identities.
var idNamespace = uuid.NameSpaceOID

// deriveID computes the deterministic identity for one record kind from its
// logical key parts. Same inputs always yield the same UUID.
func deriveID(kind string, parts ...string) uuid.UUID {
	name := kind
	for _, part := range parts {
		name += "|" + part
	}
	return uuid.NewSHA1(idNamespace, []byte(name))
}

func deriveSessionLogID(userID, contentID uuid.UUID) uuid.UUID {
	return deriveID(kindSessionLog, hexID(userID), hexID(contentID))
}

func deriveSummaryLogID(userID, contentID uuid.UUID) uuid.UUID {
	return deriveID(kindSummaryLog, hexID(userID), hexID(contentID))
}

func deriveMasteryLogID(userID, summaryLogID uuid.UUID) uuid.UUID {
	return deriveID(kindMasteryLog, hexID(userID), hexID(summaryLogID))
}

func deriveAttemptLogID(masteryLogID uuid.UUID, item string) uuid.UUID {
	return deriveID(kindAttemptLog, hexID(masteryLogID), item)
}

// hexID renders a UUID as 32 hex digits without dashes, the form used in
// composite attempt items.
func hexID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// masteryLevel derives a deterministic mastery level from a content id: the
// id's 128-bit value rendered in decimal, keeping the last nine digits.
// Deterministic rather than random so the same legacy exam always maps to the
// same mastery level across repeated runs and replicas.
func masteryLevel(contentID uuid.UUID) int {
	digits := new(big.Int).SetBytes(contentID[:]).String()
	if len(digits) > 9 {
		digits = digits[len(digits)-9:]
	}
	level, err := strconv.Atoi(digits)
	if err != nil {
		// Unreachable: digits is a non-empty decimal string of at most nine digits.
		return 0
	}
	return level
}
