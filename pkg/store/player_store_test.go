package store

import (
	"testing"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCreatesOnMiss(t *testing.T) {
	s := New()
	ch := s.Get("Area 52", "Testchar")
	assert.Equal(t, "Area 52", ch.Realm)
	assert.Equal(t, "Testchar", ch.Name)
	assert.Equal(t, "Unknown", ch.Faction)
	assert.Equal(t, 1, s.Len())

	// Getting again must not create a second entry.
	_ = s.Get("Area 52", "Testchar")
	assert.Equal(t, 1, s.Len())
}

func TestUpdateReplacesInPlace(t *testing.T) {
	s := New()
	ch := s.Get("Area 52", "Testchar")
	ch.Level = 80
	s.Update(ch)

	got := s.Get("Area 52", "Testchar")
	assert.Equal(t, 80, got.Level)
}

func TestMarkExportedIsNoOpOnMiss(t *testing.T) {
	s := New()
	s.MarkExported("Area 52", "Nobody", 123) // must not panic
	assert.Equal(t, 0, s.Len())
}

func TestMarkExportedSetsField(t *testing.T) {
	s := New()
	_ = s.Get("Area 52", "Testchar")
	s.MarkExported("Area 52", "Testchar", 999)
	got := s.Get("Area 52", "Testchar")
	assert.Equal(t, int64(999), got.LastExported)
}

func TestSnapshotStableOrder(t *testing.T) {
	s := New()
	s.Update(models.NewCharacter("Zul'jin", "Bravo"))
	s.Update(models.NewCharacter("Area 52", "Charlie"))
	s.Update(models.NewCharacter("Area 52", "Alpha"))

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "Area 52", snap[0].Realm)
	assert.Equal(t, "Alpha", snap[0].Name)
	assert.Equal(t, "Area 52", snap[1].Realm)
	assert.Equal(t, "Charlie", snap[1].Name)
	assert.Equal(t, "Zul'jin", snap[2].Realm)
}

func TestMergeTakesUnseenCharacterWholesale(t *testing.T) {
	s := New()
	incoming := models.NewCharacter("Area 52", "Testchar")
	incoming.LastSeen = 100
	incoming.LastLogs = 50
	incoming.SetRanking("1017-25", models.Ranking{EncountersTotal: 8})

	s.Merge(map[string]map[string]models.Character{
		"Area 52": {"Testchar": incoming},
	})

	got := s.Get("Area 52", "Testchar")
	assert.Equal(t, int64(100), got.LastSeen)
	assert.Equal(t, int64(50), got.LastLogs)
	assert.Equal(t, 8, got.Ranking("1017-25").EncountersTotal)
}

func TestMergePreservesSessionRankingsOverStaleDiskScan(t *testing.T) {
	s := New()
	ch := models.NewCharacter("Area 52", "Testchar")
	ch.LastSeen = 100
	ch.LastLogs = 500 // fetched this session, after the disk scan's LastSeen
	ch.SetRanking("1017-25", models.Ranking{EncountersTotal: 8})
	s.Update(ch)

	stale := models.NewCharacter("Area 52", "Testchar")
	stale.LastSeen = 100 // unchanged addon bookkeeping
	stale.LastLogs = 0   // disk scan knows nothing about the live fetch

	s.Merge(map[string]map[string]models.Character{
		"Area 52": {"Testchar": stale},
	})

	got := s.Get("Area 52", "Testchar")
	assert.Equal(t, int64(500), got.LastLogs, "live session fetch must survive a reload")
	assert.Equal(t, 8, got.Ranking("1017-25").EncountersTotal)
}

func TestMergeRefreshesBookkeepingOnNewerSeen(t *testing.T) {
	s := New()
	ch := models.NewCharacter("Area 52", "Testchar")
	ch.LastSeen = 100
	ch.Level = 79
	s.Update(ch)

	fresher := models.NewCharacter("Area 52", "Testchar")
	fresher.LastSeen = 200
	fresher.Level = 80
	fresher.Faction = "Horde"

	s.Merge(map[string]map[string]models.Character{
		"Area 52": {"Testchar": fresher},
	})

	got := s.Get("Area 52", "Testchar")
	assert.Equal(t, int64(200), got.LastSeen)
	assert.Equal(t, 80, got.Level)
	assert.Equal(t, "Horde", got.Faction)
}
