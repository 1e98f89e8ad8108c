// Package search implements the principal-variation search kernel: move
// ordering, quiescence, static exchange evaluation, the lock-striped
// transposition cache, and the lazy-SMP orchestrator built on top of it.
package search

import (
	"github.com/hailam/chessplay/internal/board"
)

// Search-wide constants (external configuration, §6).
const (
	MaxSearchDepth = 100

	MateScore     = 15000
	MatedInMax    = -14000
	StandardScore = -32767

	FutilityMargin = 90
	FutilityDepth  = 8

	StaticNullMoveMargin = 120
	StaticNullMoveDepth  = 5

	NullMovePruningDepth = 3

	IIDDepthThreshold = 6

	LMRMinIndex = 2
	LMRMinDepth = 3

	maxPly = MaxSearchDepth + 32
)

// pvLine holds a principal variation rooted at one ply: up to maxPly moves,
// slot 0 is the move to play from that ply.
type pvLine struct {
	moves [maxPly + 1]board.Move
	n     int
}

func (pv *pvLine) clear() { pv.n = 0 }

// set writes mv followed by child's line into pv.
func (pv *pvLine) set(mv board.Move, child *pvLine) {
	pv.moves[0] = mv
	copy(pv.moves[1:], child.moves[:child.n])
	pv.n = child.n + 1
}

// SeeBuffer is the reusable swap-list scratch space for static exchange
// evaluation, sized generously for the longest plausible exchange chain.
type SeeBuffer struct {
	gain [32]int
}

// SearchState is the per-worker, exclusively-owned mutable state threaded
// through one call tree of pvs/quiescence.
type SearchState struct {
	pvTable [maxPly + 1]pvLine
	// pvHint is the principal variation collected by the previous completed
	// iterative-deepening iteration, indexed by ply along that line. Unlike
	// pvTable, which pvs clears at the top of every node, pvHint survives
	// Reset and is what actually seeds pvMove/hasPVMove for move ordering.
	pvHint      []board.Move
	killers     [maxPly + 1][2]board.Move
	quietsTried [maxPly + 1][]board.Move

	historyScore [2][64][64]int
	hhScore      [2][64][64]int
	bfScore      [2][64][64]int

	seeBuf SeeBuffer

	history *History

	stats Stats

	stop bool

	nodes       uint64
	checkupMask uint64

	checkStop func() bool
}

// NewSearchState allocates a fresh worker state sharing nothing mutable
// with other workers except (by reference) the history snapshot, which the
// orchestrator gives each worker its own copy of.
func NewSearchState(history *History, checkStop func() bool) *SearchState {
	return &SearchState{history: history, checkStop: checkStop}
}

// Reset clears per-search (not per-node) state between iterative-deepening
// iterations, preserving the history and heuristic tables that should carry
// forward within one search call.
func (s *SearchState) Reset() {
	for d := range s.pvTable {
		s.pvTable[d].clear()
	}
	s.stop = false
	s.nodes = 0
	s.stats = Stats{}
}

// refreshPVHint snapshots pvTable[0], the line the just-finished iteration
// settled on, into pvHint for the next iteration to seed move ordering from.
// Called once per completed iteration, never per node.
func (s *SearchState) refreshPVHint() {
	line := &s.pvTable[0]
	if cap(s.pvHint) < line.n {
		s.pvHint = make([]board.Move, line.n)
	}
	s.pvHint = s.pvHint[:line.n]
	copy(s.pvHint, line.moves[:line.n])
}

// checkup refreshes elapsed-time bookkeeping and latches stop from the
// shared atomic flag; called every 1024 nodes per §4.6 step 1.
func (s *SearchState) checkup() {
	s.stats.Refresh()
	if s.checkStop != nil && s.checkStop() {
		s.stop = true
	}
}

func (s *SearchState) bumpNode() {
	s.nodes++
	s.stats.Nodes++
	if s.nodes&1023 == 0 {
		s.checkup()
	}
}

func ageDelta(storedAge, rootPly uint16) bool {
	return storedAge != rootPly
}
