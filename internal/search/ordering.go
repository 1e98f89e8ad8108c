package search

import "github.com/hailam/chessplay/internal/board"

// Move-ordering score bands, per §4.4. PV-table and TT moves are not scored
// here: pvs.go generates the full move list first, checks both moves
// against it, and tries them before picking from the graded list, per the
// spec's "preempted" note.
const (
	scoreEnPassant  = 9999
	scoreCaptureAdd = 10000
	scoreKillerAdd  = 5000
)

// gradedMove pairs a move with its ordering score for selection.
type gradedMove struct {
	move  board.Move
	score int
}

// gradedMoveList is the per-ply scratch array the spec calls the "graded
// move list"; picking from it is a repeated linear max-scan (selection
// sort), matching §4.4's selection rule and ties-broken-by-earliest-index.
type gradedMoveList struct {
	moves   []gradedMove
	nPicked int
}

// ScoreMoves grades every move in ml except those already tried as the
// PV/TT move at this ply (skip, per the dedupe rule in §4.6 step 13).
func ScoreMoves(pos *board.Position, state *SearchState, ply int, ml *board.MoveList, skip1, skip2 board.Move) *gradedMoveList {
	g := &gradedMoveList{moves: make([]gradedMove, 0, ml.Len())}
	us := pos.SideToMove

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if m == skip1 || (skip2 != board.NoMove && m == skip2) {
			continue
		}
		g.moves = append(g.moves, gradedMove{move: m, score: scoreMove(pos, state, ply, us, m)})
	}
	return g
}

func scoreMove(pos *board.Position, state *SearchState, ply int, us board.Color, m board.Move) int {
	if m.IsEnPassant() {
		return scoreEnPassant
	}

	if m.IsCapture(pos) || m.IsPromotion() {
		sc := see(pos, m, true, &state.seeBuf)
		if sc >= 0 {
			return int(sc) + scoreCaptureAdd
		}
		return int(sc)
	}

	score := 0
	if state.killers[ply][0] == m || state.killers[ply][1] == m {
		score += scoreKillerAdd
	}

	hh := state.hhScore[us][m.From()][m.To()]
	bf := state.bfScore[us][m.From()][m.To()]
	if bf > 0 {
		score += hh / bf / 1000
	}
	return score
}

// pick performs one selection-sort pop: the highest-scoring unconsumed move
// is swapped to the front of the unconsumed tail and returned.
func (g *gradedMoveList) pick() (board.Move, bool) {
	n := len(g.moves)
	if g.nPicked >= n {
		return board.NoMove, false
	}

	best := g.nPicked
	for i := g.nPicked + 1; i < n; i++ {
		if g.moves[i].score > g.moves[best].score {
			best = i
		}
	}
	g.moves[g.nPicked], g.moves[best] = g.moves[best], g.moves[g.nPicked]
	m := g.moves[g.nPicked].move
	g.nPicked++
	return m, true
}

// updateKillers inserts m into killer slot 0 at ply, shifting the prior
// slot-0 entry to slot 1, unless m is already present (§4.4).
func updateKillers(state *SearchState, ply int, m board.Move) {
	if state.killers[ply][0] == m || state.killers[ply][1] == m {
		return
	}
	state.killers[ply][1] = state.killers[ply][0]
	state.killers[ply][0] = m
}

// updateHistoryOnCutoff rewards the cutting move and punishes every quiet
// move tried before it at this ply that did not cut, per §4.4.
func updateHistoryOnCutoff(state *SearchState, us board.Color, ply, depth int, cutMove board.Move) {
	bonus := depth * depth

	state.hhScore[us][cutMove.From()][cutMove.To()] += bonus
	state.historyScore[us][cutMove.From()][cutMove.To()] += bonus

	for _, q := range state.quietsTried[ply] {
		if q == cutMove {
			continue
		}
		state.historyScore[us][q.From()][q.To()] -= bonus
	}
}

// recordQuietTried records a quiet move searched without causing a cutoff,
// incrementing its butterfly count (§4.4).
func recordQuietTried(state *SearchState, us board.Color, ply, depth int, m board.Move) {
	state.quietsTried[ply] = append(state.quietsTried[ply], m)
	state.bfScore[us][m.From()][m.To()] += depth * depth
}
