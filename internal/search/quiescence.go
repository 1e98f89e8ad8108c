package search

import "github.com/hailam/chessplay/internal/board"

const deltaPruningMargin = 200

// maxQDepth bounds how many plies of captures quiescence will chase past
// the point PVS drops into it.
const maxQDepth = 32

// quiescence implements q_search from §4.5: a capture-only (or, in check,
// full-legal-move) search with no depth limit beyond qdepth, used to settle
// tactical sequences before trusting a leaf evaluation.
func (w *worker) quiescence(pos *board.Position, pawnTable *PawnTable, alpha, beta int16, qdepth, depth int) int16 {
	state := w.state
	state.bumpNode()
	if state.stop {
		return StandardScore
	}

	inCheck := pos.InCheck()

	standPat := int16(EvaluateWithPawnTable(pos, pawnTable))

	if !inCheck {
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	if qdepth <= 0 {
		return alpha
	}

	var ml *board.MoveList
	if inCheck {
		ml = pos.GenerateLegalMoves()
	} else {
		ml = pos.GenerateCaptures()
	}

	if ml.Len() == 0 {
		if inCheck {
			return -int16(MateScore - depth)
		}
		return alpha
	}

	graded := ScoreMoves(pos, state, depth, ml, board.NoMove, board.NoMove)

	moved := 0
	for {
		m, ok := graded.pick()
		if !ok {
			break
		}

		isCapture := m.IsCapture(pos) || m.IsEnPassant()

		if !inCheck && isCapture {
			if see(pos, m, true, &state.seeBuf) < 0 {
				continue
			}
			capturedValue := 0
			if victim := pos.PieceAt(m.To()); victim != board.NoPiece {
				capturedValue = pieceValue[victim.Type()]
			}
			if int(standPat)+capturedValue+deltaPruningMargin < int(alpha) {
				continue
			}
		}

		next := pos.Copy()
		next.MakeMove(m)

		moved++
		score := -w.quiescence(next, pawnTable, -beta, -alpha, qdepth-1, depth+1)
		if state.stop {
			return StandardScore
		}

		if score >= beta {
			return score
		}
		if score > alpha {
			alpha = score
		}
	}

	if moved == 0 && inCheck {
		return -int16(MateScore - depth)
	}

	return alpha
}
