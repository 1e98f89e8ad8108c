package search

import "github.com/hailam/chessplay/internal/board"

// see computes the static exchange value of a capture on move's destination
// square (§4.2): a swap list seeded by the captured piece's value, walked by
// repeatedly finding the least valuable attacker and alternating sides,
// resolved by a backward negamax pass. assumeTargetGainPositive skips the
// "not even a capture" short-circuit for moves the caller already knows are
// captures (en passant, promotions), matching callers that pre-classify the
// move before asking for its SEE value.
func see(pos *board.Position, m board.Move, assumeTargetGainPositive bool, scratch *SeeBuffer) int16 {
	from := m.From()
	to := m.To()

	attacker := pos.PieceAt(from)
	if attacker == board.NoPiece {
		return 0
	}

	var capturedValue int
	switch {
	case m.IsEnPassant():
		capturedValue = pieceValue[board.Pawn]
	default:
		victim := pos.PieceAt(to)
		if victim == board.NoPiece {
			if !assumeTargetGainPositive {
				return 0
			}
			capturedValue = 0
		} else {
			capturedValue = pieceValue[victim.Type()]
		}
	}

	if m.IsPromotion() {
		capturedValue += pieceValue[m.Promotion()] - pieceValue[board.Pawn]
	}

	return seeSwap(pos, to, from, attacker, capturedValue, scratch)
}

var pieceValue = [7]int{100, 320, 330, 500, 900, 20000, 0}

func seeSwap(pos *board.Position, target, excludeFrom board.Square, firstAttacker board.Piece, initialGain int, scratch *SeeBuffer) int16 {
	gain := &scratch.gain
	d := 0
	gain[d] = initialGain

	occupied := pos.AllOccupied &^ board.SquareBB(excludeFrom)

	attackerValue := pieceValue[firstAttacker.Type()]
	side := firstAttacker.Color().Other()

	for {
		d++
		gain[d] = attackerValue - gain[d-1]

		if maxInt(-gain[d-1], gain[d]) < 0 {
			break
		}

		attackerSq, attackerPiece := leastValuableAttacker(pos, target, side, occupied)
		if attackerSq == board.NoSquare {
			break
		}

		occupied &^= board.SquareBB(attackerSq)
		attackerValue = pieceValue[attackerPiece.Type()]
		side = side.Other()
	}

	for d--; d > 0; d-- {
		gain[d-1] = -maxInt(-gain[d-1], gain[d])
	}

	return int16(gain[0])
}

func leastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.Piece) {
	pawnAttacks := board.PawnAttacks(target, side.Other())
	if attackers := pos.Pieces[side][board.Pawn] & pawnAttacks & occupied; attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Pawn, side)
	}

	if attackers := pos.Pieces[side][board.Knight] & board.KnightAttacks(target) & occupied; attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Knight, side)
	}

	bishopAttacks := board.BishopAttacks(target, occupied)
	if attackers := pos.Pieces[side][board.Bishop] & bishopAttacks & occupied; attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Bishop, side)
	}

	rookAttacks := board.RookAttacks(target, occupied)
	if attackers := pos.Pieces[side][board.Rook] & rookAttacks & occupied; attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Rook, side)
	}

	if attackers := pos.Pieces[side][board.Queen] & (bishopAttacks | rookAttacks) & occupied; attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Queen, side)
	}

	if attackers := pos.Pieces[side][board.King] & board.KingAttacks(target) & occupied; attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.King, side)
	}

	return board.NoSquare, board.NoPiece
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
