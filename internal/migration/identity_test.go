package migration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDeriveID_Deterministic(t *testing.T) {
	a := deriveID(kindSessionLog, "user", "content")
	b := deriveID(kindSessionLog, "user", "content")
	assert.Equal(t, a, b)
}

func TestDeriveID_KindsAreIndependentIdentitySpaces(t *testing.T) {
	session := deriveID(kindSessionLog, "user", "content")
	summary := deriveID(kindSummaryLog, "user", "content")
	assert.NotEqual(t, session, summary)
}

func TestDeriveID_DistinctKeysDistinctIDs(t *testing.T) {
	a := deriveID(kindAttemptLog, "mastery", "item-a")
	b := deriveID(kindAttemptLog, "mastery", "item-b")
	assert.NotEqual(t, a, b)
}

func TestDeriveLogIDs_StableAcrossCalls(t *testing.T) {
	userID := uuid.MustParse("5b2d1a3e-8f4c-4e2a-9d6b-7c1f0a9e8d7c")
	contentID := uuid.MustParse("1f9e8d7c-6b5a-4d3c-2b1a-0f9e8d7c6b5a")

	sessionID := deriveSessionLogID(userID, contentID)
	summaryID := deriveSummaryLogID(userID, contentID)
	masteryID := deriveMasteryLogID(userID, summaryID)
	attemptID := deriveAttemptLogID(masteryID, hexID(contentID)+":item1")

	assert.Equal(t, sessionID, deriveSessionLogID(userID, contentID))
	assert.Equal(t, summaryID, deriveSummaryLogID(userID, contentID))
	assert.Equal(t, masteryID, deriveMasteryLogID(userID, summaryID))
	assert.Equal(t, attemptID, deriveAttemptLogID(masteryID, hexID(contentID)+":item1"))

	ids := map[uuid.UUID]struct{}{
		sessionID: {}, summaryID: {}, masteryID: {}, attemptID: {},
	}
	assert.Len(t, ids, 4, "all four derived ids must be distinct")
}

func TestHexID(t *testing.T) {
	id := uuid.MustParse("00010203-0405-0607-0809-0a0b0c0d0e0f")
	assert.Equal(t, "000102030405060708090a0b0c0d0e0f", hexID(id))
}

func TestMasteryLevel_KnownValues(t *testing.T) {
	// Zero id has decimal value 0.
	assert.Equal(t, 0, masteryLevel(uuid.UUID{}))

	// ...0001 has decimal value 1.
	assert.Equal(t, 1, masteryLevel(uuid.UUID{15: 1}))

	// 0x3e8 = 1000.
	assert.Equal(t, 1000, masteryLevel(uuid.MustParse("00000000-0000-0000-0000-0000000003e8")))

	// 2^128-1 = 340282366920938463463374607431768211455, last nine digits.
	allOnes := uuid.UUID{}
	for i := range allOnes {
		allOnes[i] = 0xff
	}
	assert.Equal(t, 768211455, masteryLevel(allOnes))
}

func TestMasteryLevel_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		id := uuid.New()
		level := masteryLevel(id)
		assert.Equal(t, level, masteryLevel(id))
		assert.GreaterOrEqual(t, level, 0)
		assert.Less(t, level, 1_000_000_000)
	}
}
