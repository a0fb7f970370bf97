package queue

import "sort"

// matchResult is what runMatch returns: either a winning candidate or none.
type matchResult struct {
	found     bool
	candidate Entry
	delta     int
}

// runMatch is the Matcher: a deterministic pure function of
// a Snapshot, the just-inserted Entry, and a delta cap. It never mutates
// Storage itself; Coordinator performs the two removals once a winner is
// chosen.
func runMatch(snap Snapshot, entry Entry, cap DeltaCap) matchResult {
	limit := cap.Limit
	if cap.Unbounded {
		limit = maxRankDistance(snap, entry.Rank)
	}

	for delta := 0; delta <= limit; delta++ {
		pool := candidatePool(snap, entry, delta)
		if len(pool) == 0 {
			continue
		}
		winner := pickWinner(pool)
		return matchResult{found: true, candidate: winner, delta: delta}
	}
	return matchResult{found: false}
}

// candidatePool returns the Entries eligible to match entry at the given
// delta: the filtered same-rank bucket at delta 0, or the union of the
// rank-delta and rank+delta buckets otherwise. entry itself is always
// excluded so it can never match itself.
func candidatePool(snap Snapshot, entry Entry, delta int) []Entry {
	if delta == 0 {
		return snap.bucketExcluding(entry.Rank, entry.Handle)
	}

	var pool []Entry
	if lower := entry.Rank - delta; lower >= 0 {
		pool = append(pool, snap.bucketExcluding(lower, entry.Handle)...)
	}
	pool = append(pool, snap.bucketExcluding(entry.Rank+delta, entry.Handle)...)
	return pool
}

// pickWinner selects the deterministic winner from a non-empty candidate
// pool: earliest arrival wins, lexicographically smaller UserID breaks
// ties on identical InsertedAt.
func pickWinner(pool []Entry) Entry {
	best := pool[0]
	for _, e := range pool[1:] {
		if lessArrival(e, best) {
			best = e
		}
	}
	return best
}

// maxRankDistance returns the largest |r' - rank| over every rank present
// in the snapshot, or 0 if no other rank exists.
func maxRankDistance(snap Snapshot, rank int) int {
	if len(snap.ByRank) == 0 {
		return 0
	}
	ranks := make([]int, 0, len(snap.ByRank))
	for r := range snap.ByRank {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	max := 0
	for _, r := range ranks {
		d := r - rank
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}
