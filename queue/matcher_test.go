package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotFrom(entries ...Entry) Snapshot {
	byRank := make(map[int][]Entry)
	for _, e := range entries {
		byRank[e.Rank] = append(byRank[e.Rank], e)
	}
	return Snapshot{ByRank: byRank, Arrival: entries, Size: len(entries)}
}

func TestRunMatch_ExactRankWins(t *testing.T) {
	a := Entry{Handle: newHandle(), UserID: "a", Rank: 10, InsertedAt: 1}
	b := Entry{Handle: newHandle(), UserID: "b", Rank: 10, InsertedAt: 2}
	snap := snapshotFrom(a, b)

	result := runMatch(snap, b, DeltaCap{Unbounded: true})
	require.True(t, result.found)
	assert.Equal(t, "a", result.candidate.UserID)
	assert.Equal(t, 0, result.delta)
}

func TestRunMatch_FIFOWithinSameRank(t *testing.T) {
	a := Entry{Handle: newHandle(), UserID: "a", Rank: 10, InsertedAt: 1}
	b := Entry{Handle: newHandle(), UserID: "b", Rank: 10, InsertedAt: 2}
	c := Entry{Handle: newHandle(), UserID: "c", Rank: 10, InsertedAt: 3}
	snap := snapshotFrom(a, b, c)

	result := runMatch(snap, c, DeltaCap{Unbounded: true})
	require.True(t, result.found)
	assert.Equal(t, "a", result.candidate.UserID, "earliest arrival at the same rank must win")
}

func TestRunMatch_TieBreakByUserID(t *testing.T) {
	a := Entry{Handle: newHandle(), UserID: "zeta", Rank: 10, InsertedAt: 1}
	b := Entry{Handle: newHandle(), UserID: "alpha", Rank: 10, InsertedAt: 1}
	c := Entry{Handle: newHandle(), UserID: "newcomer", Rank: 10, InsertedAt: 5}
	snap := snapshotFrom(a, b, c)

	result := runMatch(snap, c, DeltaCap{Unbounded: true})
	require.True(t, result.found)
	assert.Equal(t, "alpha", result.candidate.UserID, "identical InsertedAt breaks tie on UserID")
}

func TestRunMatch_IncrementalExpansionStopsAtDeltaOne(t *testing.T) {
	entry := Entry{Handle: newHandle(), UserID: "new", Rank: 10, InsertedAt: 3}
	near := Entry{Handle: newHandle(), UserID: "near", Rank: 9, InsertedAt: 1}
	far := Entry{Handle: newHandle(), UserID: "far", Rank: 5, InsertedAt: 0}
	snap := snapshotFrom(near, far, entry)

	result := runMatch(snap, entry, DeltaCap{Unbounded: true})
	require.True(t, result.found)
	assert.Equal(t, "near", result.candidate.UserID)
	assert.Equal(t, 1, result.delta)
}

func TestRunMatch_ClosestRangeFirst(t *testing.T) {
	entry := Entry{Handle: newHandle(), UserID: "new", Rank: 10, InsertedAt: 5}
	exact := Entry{Handle: newHandle(), UserID: "exact", Rank: 10, InsertedAt: 1}
	closer := Entry{Handle: newHandle(), UserID: "closer", Rank: 11, InsertedAt: 2}
	snap := snapshotFrom(exact, closer, entry)

	result := runMatch(snap, entry, DeltaCap{Unbounded: true})
	require.True(t, result.found)
	assert.Equal(t, "exact", result.candidate.UserID, "delta 0 must be tried before any wider delta")
}

func TestRunMatch_RespectsBoundedDeltaCap(t *testing.T) {
	entry := Entry{Handle: newHandle(), UserID: "new", Rank: 10, InsertedAt: 1}
	far := Entry{Handle: newHandle(), UserID: "far", Rank: 15, InsertedAt: 0}
	snap := snapshotFrom(far, entry)

	result := runMatch(snap, entry, DeltaCap{Limit: 2})
	assert.False(t, result.found, "a candidate outside the cap must not be selected")
}

func TestRunMatch_NoCandidatesReturnsNotFound(t *testing.T) {
	entry := Entry{Handle: newHandle(), UserID: "solo", Rank: 10, InsertedAt: 1}
	snap := snapshotFrom(entry)

	result := runMatch(snap, entry, DeltaCap{Unbounded: true})
	assert.False(t, result.found)
}

func TestMaxRankDistance(t *testing.T) {
	snap := snapshotFrom(
		Entry{UserID: "a", Rank: 5},
		Entry{UserID: "b", Rank: 12},
		Entry{UserID: "c", Rank: 1},
	)
	assert.Equal(t, 9, maxRankDistance(snap, 3))
}

func TestMaxRankDistance_Empty(t *testing.T) {
	assert.Equal(t, 0, maxRankDistance(Snapshot{}, 5))
}
