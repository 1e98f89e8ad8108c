package search

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

// TestCacheWriteThenRead checks that an Insert immediately followed by a
// Lookup at the same or shallower depth and a compatible window returns the
// stored score and move.
func TestCacheWriteThenRead(t *testing.T) {
	pos := board.NewPosition()
	c := NewCache(1, 1)

	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		t.Fatal("starting position has no legal moves")
	}
	mv := moves.Get(0)

	const depth = 6
	const score int16 = 37
	c.Insert(pos.Hash, pos, mv, score, -MateScore, MateScore, depth, 0, 12, true)

	// Null window: Lookup only returns Stop outside a PV window.
	res := c.Lookup(pos.Hash, pos, depth, score, score+1, 0)
	if res.Instruction != Stop {
		t.Fatalf("expected Stop, got Continue")
	}
	if res.Score != score {
		t.Fatalf("score = %d, want %d", res.Score, score)
	}
	if !res.HasTTMove || res.TTMove.From() != mv.From() || res.TTMove.To() != mv.To() {
		t.Fatalf("TTMove = %s, want %s", res.TTMove, mv)
	}
}

// TestCacheShallowerInsertDoesNotSatisfyDeeperLookup checks that a lookup
// requesting more depth than was stored returns Continue, not a stale Stop.
func TestCacheShallowerInsertDoesNotSatisfyDeeperLookup(t *testing.T) {
	pos := board.NewPosition()
	c := NewCache(1, 1)
	mv := pos.GenerateLegalMoves().Get(0)

	c.Insert(pos.Hash, pos, mv, 10, -MateScore, MateScore, 2, 0, 0, false)

	res := c.Lookup(pos.Hash, pos, 8, -MateScore, MateScore, 0)
	if res.Instruction != Continue {
		t.Fatalf("expected Continue for a deeper request than what was stored, got Stop")
	}
	// The shallow entry's move is still a useful ordering hint.
	if !res.HasTTMove {
		t.Fatalf("expected the shallow entry's move to still be reported as a hint")
	}
}

// TestCacheReplacementMonotonicity checks the single-hash replacement rule:
// a shallower write to the same hash overwrites a deeper entry in place, so
// the deeper result no longer satisfies a deep lookup and the shallow one is
// readable at its own depth.
func TestCacheReplacementMonotonicity(t *testing.T) {
	pos := board.NewPosition()
	c := NewCache(1, 1) // one stripe, so every entry below maps to the same stripe
	mv := pos.GenerateLegalMoves().Get(0)

	// Hashes near pos.Hash; none of them is inserted below.
	hashes := make([]uint64, 3)
	for i := range hashes {
		// Perturb the hash while keeping it mapped to the same bucket index
		// is not guaranteed across the whole space, so instead just confirm
		// the single-hash upgrade/downgrade behavior, the part the policy
		// actually documents as deterministic.
		hashes[i] = pos.Hash ^ (uint64(i) << 20)
	}

	h := pos.Hash
	c.Insert(h, pos, mv, 50, -MateScore, MateScore, 10, 0, 0, false)
	// Null windows: Lookup only returns Stop outside a PV window.
	before := c.Lookup(h, pos, 10, 0, 1, 0)
	if before.Instruction != Stop || before.Score != 50 {
		t.Fatalf("setup: expected depth-10 entry to be readable, got %+v", before)
	}

	// A shallower, same-age, non-PV write to the same hash overwrites the
	// depth-10 entry in place (a hash match always overwrites), so a later
	// depth-10 lookup no longer stops and the shallow write is visible at
	// its own (shallower) depth.
	c.Insert(h, pos, mv, 5, -MateScore, MateScore, 3, 0, 0, false)
	after := c.Lookup(h, pos, 10, 0, 1, 0)
	if after.Instruction == Stop {
		t.Fatalf("depth-3 overwrite of a depth-10 entry should not satisfy a depth-10 lookup")
	}
	afterShallow := c.Lookup(h, pos, 3, 0, 1, 0)
	if afterShallow.Instruction != Stop || afterShallow.Score != 5 {
		t.Fatalf("expected the hash-matched overwrite to be visible at its own depth, got %+v", afterShallow)
	}
}

// TestCacheZeroSizeIsNoOp checks the §7 contract that a zero-MB cache
// degrades every Insert/Lookup to a no-op rather than panicking.
func TestCacheZeroSizeIsNoOp(t *testing.T) {
	pos := board.NewPosition()
	c := NewCache(0, 1)
	mv := pos.GenerateLegalMoves().Get(0)

	c.Insert(pos.Hash, pos, mv, 10, -MateScore, MateScore, 5, 0, 0, false)
	res := c.Lookup(pos.Hash, pos, 5, -MateScore, MateScore, 0)
	if res.Instruction != Continue {
		t.Fatalf("zero-size cache should never produce a Stop verdict")
	}
	if status := c.GetStatus(); status != 1000 {
		t.Fatalf("GetStatus() on a zero-size cache = %v, want 1000", status)
	}
}
