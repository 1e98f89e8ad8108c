package search

import (
	"math"

	"github.com/hailam/chessplay/internal/board"
)

// colorSign is +1 for White to move, -1 for Black, the multiplier the
// evaluator's White-perspective score is combined with throughout pvs and
// quiescence (§4.1, §4.6).
func colorSign(c board.Color) int16 {
	if c == board.White {
		return 1
	}
	return -1
}

// isDraw implements check_for_draw: insufficient mating material, the
// 50-move rule, or a repetition already seen once since the last reset.
func isDraw(pos *board.Position, history *History) bool {
	if pos.IsInsufficientMaterial() {
		return true
	}
	if pos.HalfMoveClock >= 100 {
		return true
	}
	if history.Occurrences(pos.Hash) >= 1 {
		return true
	}
	return false
}

// isLikelyStalemate is the conservative heuristic from §9: true only when
// neither side has a slider or queen, and the side to move has no legal
// move reachable through knight attacks, king attacks, pawn captures
// (including en passant), or pawn pushes. It is a cheap pre-filter, not a
// full legality check, so it may under-detect stalemate-adjacent positions
// without ever over-detecting one (the capture/push scan below is the same
// attack machinery movegen itself uses).
func isLikelyStalemate(pos *board.Position) bool {
	sliders := pos.Pieces[board.White][board.Bishop] | pos.Pieces[board.Black][board.Bishop] |
		pos.Pieces[board.White][board.Rook] | pos.Pieces[board.Black][board.Rook] |
		pos.Pieces[board.White][board.Queen] | pos.Pieces[board.Black][board.Queen]
	if sliders != 0 {
		return false
	}

	us := pos.SideToMove
	them := us.Other()
	occupied := pos.AllOccupied
	enemies := pos.Occupied[them]

	knights := pos.Pieces[us][board.Knight]
	for knights != 0 {
		from := knights.PopLSB()
		if board.KnightAttacks(from)&^pos.Occupied[us] != 0 {
			return false
		}
	}

	kingSq := pos.KingSquare[us]
	if board.KingAttacks(kingSq)&^pos.Occupied[us] != 0 {
		return false
	}

	pawns := pos.Pieces[us][board.Pawn]
	for p := pawns; p != 0; {
		from := p.PopLSB()
		if board.PawnAttacks(from, us)&enemies != 0 {
			return false
		}
		if pos.EnPassant != board.NoSquare && board.PawnAttacks(from, us)&board.SquareBB(pos.EnPassant) != 0 {
			return false
		}
		push := board.PawnPushes(from, us) &^ occupied
		if push != 0 {
			return false
		}
	}

	return true
}

// leafScore implements §4.6's mate-distance formula, mapping a terminal
// GameResult to a side-relative score at the current ply.
func leafScore(result gameResult, color int16, curDepth int) int16 {
	switch result {
	case resultDraw:
		return 0
	case resultWhiteWin:
		return int16(MateScore-curDepth) * color
	case resultBlackWin:
		return int16(MateScore-curDepth) * -color
	}
	return 0
}

type gameResult int

const (
	resultIngame gameResult = iota
	resultDraw
	resultWhiteWin
	resultBlackWin
)

// checkEndCondition classifies the terminal status of a node that produced
// no further search (either no legal moves were tried, or none existed).
func checkEndCondition(us board.Color, hasLegalMoves, inCheck bool) gameResult {
	if inCheck && !hasLegalMoves {
		if us == board.White {
			return resultBlackWin
		}
		return resultWhiteWin
	}
	if !inCheck && !hasLegalMoves {
		return resultDraw
	}
	return resultIngame
}

// pvs is the principal-variation search driver (§4.6). alpha<beta on entry.
// Returns a side-relative score, or StandardScore if a stop was latched.
func (w *worker) pvs(alpha, beta int16, depthLeft, curDepth int, pos *board.Position, color int16) int16 {
	state := w.state

	state.bumpNode()
	state.pvTable[curDepth].clear()

	if state.stop {
		return StandardScore
	}

	if curDepth >= MaxSearchDepth-1 {
		return int16(Evaluate(pos)) * color
	}

	root := curDepth == 0

	if !root && isDraw(pos, state.history) {
		return leafScore(resultDraw, color, curDepth)
	}

	isPVNode := beta-alpha > 1
	inCheck := pos.InCheck()
	likelyStalemate := !inCheck && isLikelyStalemate(pos)

	if (inCheck && !root) || (depthLeft == 0 && likelyStalemate) {
		depthLeft++
	}

	if depthLeft <= 0 {
		return w.quiescence(pos, w.pawnTable, alpha, beta, maxQDepth, curDepth)
	}

	var pvMove board.Move
	hasPVMove := false
	if curDepth < len(state.pvHint) {
		pvMove = state.pvHint[curDepth]
		hasPVMove = pvMove != board.NoMove
	}

	rootPlies := uint16(w.rootPly)
	var ttMove board.Move
	hasTTMove := false
	var staticEval int16
	hasStatic := false

	lookup := w.cache.Lookup(pos.Hash, pos, depthLeft, alpha, beta, rootPlies)
	if lookup.Instruction == Stop {
		state.pvTable[curDepth].moves[0] = lookup.TTMove
		state.pvTable[curDepth].n = 1
		return lookup.Score
	}
	if lookup.HasStatic {
		staticEval = lookup.StaticEval
		hasStatic = true
	}
	if lookup.HasTTMove {
		ttMove = lookup.TTMove
		hasTTMove = true
	}

	state.history.Push(pos.Hash, pos.HalfMoveClock == 0)

	ensureStatic := func() int16 {
		if !hasStatic {
			staticEval = int16(Evaluate(pos))
			hasStatic = true
		}
		return staticEval
	}

	// Static null-move pruning (§4.6 step 9). The return value uses
	// STATIC_NULL_MOVE_DEPTH, not _MARGIN, matching the source verbatim.
	if !isPVNode && !inCheck && !likelyStalemate && depthLeft <= StaticNullMoveDepth {
		se := ensureStatic()
		if se*color-StaticNullMoveMargin*int16(depthLeft) >= beta {
			state.history.Pop()
			return se*color - StaticNullMoveDepth*int16(depthLeft)
		}
	}

	// Null-move pruning (§4.6 step 10).
	if !isPVNode && !inCheck && !likelyStalemate && depthLeft >= NullMovePruningDepth && pos.HasNonPawnMaterial() {
		se := ensureStatic()
		if se*color >= beta {
			undo := pos.MakeNullMove()
			reduced := depthLeft - 4 - depthLeft/6
			if reduced < 0 {
				reduced = 0
			}
			score := -w.pvs(-beta, -beta+1, reduced, curDepth+1, pos, -color)
			pos.UnmakeNullMove(undo)
			if score >= beta {
				state.history.Pop()
				return score
			}
		}
	}

	// Internal iterative deepening (§4.6 step 11).
	if isPVNode && !inCheck && !likelyStalemate && !hasPVMove && !hasTTMove && depthLeft > IIDDepthThreshold {
		state.history.Pop()
		w.pvs(alpha, beta, depthLeft-2, curDepth, pos, color)
		state.history.Push(pos.Hash, pos.HalfMoveClock == 0)
		if state.stop {
			return StandardScore
		}
		if state.pvTable[curDepth].n > 0 {
			ttMove = state.pvTable[curDepth].moves[0]
			hasTTMove = ttMove != board.NoMove
		}
	}

	// Futility pruning setup (§4.6 step 12).
	futilPruning := depthLeft <= FutilityDepth && !inCheck
	var futilMargin int16
	if futilPruning {
		futilMargin = ensureStatic()*color + int16(depthLeft)*FutilityMargin
	}

	ml := pos.GenerateLegalMoves()

	// pvMove comes from a previous iteration's completed line and ttMove from
	// a cache entry written by a possibly-different search path; either can
	// name a move that is not legal here. Discard silently, matching the
	// teacher's worker.go:481/1257 treatment of a stale cached move.
	if hasPVMove && !ml.Contains(pvMove) {
		pvMove = board.NoMove
		hasPVMove = false
	}
	if hasTTMove && !ml.Contains(ttMove) {
		ttMove = board.NoMove
		hasTTMove = false
	}

	graded := ScoreMoves(pos, state, curDepth, ml, pvMove, ttMove)
	state.quietsTried[curDepth] = state.quietsTried[curDepth][:0]

	originalAlpha := alpha
	currentMax := int16(StandardScore)
	index := 0
	movesTried := 0

	tryMove := func(mv board.Move) (stop bool) {
		isCapture := mv.IsCapture(pos)
		isPromotion := mv.IsPromotion()

		next := pos.Copy()
		next.MakeMove(mv)

		if futilPruning && !isCapture && !isPromotion && currentMax > MatedInMax && !next.InCheck() {
			if futilMargin <= alpha {
				return false
			}
			futilPruning = false
		}

		if depthLeft <= 2 && !isCapture && !isPromotion && !inCheck && currentMax > MatedInMax &&
			state.historyScore[pos.SideToMove][mv.From()][mv.To()] < 0 {
			return false
		}

		reduction := 0
		if depthLeft > LMRMinDepth-1 && !hasPVMove && !inCheck && !isCapture && index >= LMRMinIndex && !isPromotion && !next.InCheck() {
			reduction = int(math.Sqrt(float64(depthLeft-1)) + math.Sqrt(float64(index-1)))
			if isPVNode {
				reduction = int(float64(reduction) * 0.66)
			}
			if reduction > depthLeft-2 {
				reduction = depthLeft - 2
			}
			if reduction < 0 {
				reduction = 0
			}
		}

		var score int16
		if depthLeft <= 2 || !hasPVMove || index == 0 {
			score = -w.pvs(-beta, -alpha, depthLeft-1-reduction, curDepth+1, next, -color)
			if reduction > 0 && score > alpha {
				score = -w.pvs(-beta, -alpha, depthLeft-1, curDepth+1, next, -color)
			}
		} else {
			score = -w.pvs(-alpha-1, -alpha, depthLeft-1, curDepth+1, next, -color)
			if score > alpha {
				score = -w.pvs(-beta, -alpha, depthLeft-1, curDepth+1, next, -color)
			}
		}

		if state.stop {
			return true
		}

		if score > currentMax {
			state.pvTable[curDepth].set(mv, &state.pvTable[curDepth+1])
			currentMax = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			if !isCapture {
				updateHistoryOnCutoff(state, pos.SideToMove, curDepth, depthLeft, mv)
				updateKillers(state, curDepth, mv)
			}
			return true
		}
		if !isCapture {
			recordQuietTried(state, pos.SideToMove, curDepth, depthLeft, mv)
		}
		return false
	}

	cutoff := false
	if hasPVMove {
		movesTried++
		if tryMove(pvMove) {
			cutoff = true
		} else {
			index++
		}
	}
	if !cutoff && hasTTMove && ttMove != pvMove {
		movesTried++
		if tryMove(ttMove) {
			cutoff = true
		} else {
			index++
		}
	}

	for !cutoff {
		mv, ok := graded.pick()
		if !ok {
			break
		}
		movesTried++
		if tryMove(mv) {
			break
		}
		index++
	}

	state.history.Pop()

	if state.stop {
		return StandardScore
	}

	status := checkEndCondition(pos.SideToMove, movesTried > 0, inCheck)
	if status != resultIngame {
		state.pvTable[curDepth].clear()
		return leafScore(status, color, curDepth)
	}

	w.cache.Insert(pos.Hash, pos, state.pvTableBestMove(curDepth), currentMax, originalAlpha, beta, depthLeft, rootPlies, staticEval, hasStatic)

	return currentMax
}

// pvTableBestMove returns the move stored in slot 0 of the PV at depth d,
// or NoMove if the PV is empty (e.g. every move failed low).
func (s *SearchState) pvTableBestMove(d int) board.Move {
	if s.pvTable[d].n == 0 {
		return board.NoMove
	}
	return s.pvTable[d].moves[0]
}
