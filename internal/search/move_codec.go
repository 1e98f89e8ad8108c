package search

import "github.com/hailam/chessplay/internal/board"

// Move-type tags for the 16-bit cache encoding (§3): distinct from
// board.Move's own packed representation, which the move generator owns.
const (
	ttTypeQuiet     = 1
	ttTypeCastle    = 2
	ttTypePromoQ    = 3
	ttTypePromoR    = 4
	ttTypePromoB    = 5
	ttTypePromoN    = 6
	ttTypeCapture   = 7
	ttTypeEnPassant = 8
)

// encodeTTMove packs a move into the cache's 16-bit handle: bits 10-15 =
// from, bits 4-9 = to, bits 0-3 = type tag. The captured/promoted piece
// kinds are not stored; decodeTTMove re-derives them from the live position.
func encodeTTMove(pos *board.Position, m board.Move) uint16 {
	if m == board.NoMove {
		return 0
	}

	from := uint16(m.From())
	to := uint16(m.To())

	var typ uint16
	switch {
	case m.IsCastling():
		typ = ttTypeCastle
	case m.IsEnPassant():
		typ = ttTypeEnPassant
	case m.IsPromotion():
		switch m.Promotion() {
		case board.Queen:
			typ = ttTypePromoQ
		case board.Rook:
			typ = ttTypePromoR
		case board.Bishop:
			typ = ttTypePromoB
		case board.Knight:
			typ = ttTypePromoN
		}
	case m.IsCapture(pos):
		typ = ttTypeCapture
	default:
		typ = ttTypeQuiet
	}

	return (from << 10) | (to << 4) | typ
}

// decodeTTMove reconstructs a board.Move from a 16-bit cache handle by
// inspecting the live position for the pieces involved. Returns board.NoMove
// if enc is the zero sentinel.
func decodeTTMove(pos *board.Position, enc uint16) board.Move {
	if enc == 0 {
		return board.NoMove
	}

	from := board.Square((enc >> 10) & 0x3F)
	to := board.Square((enc >> 4) & 0x3F)
	typ := enc & 0xF

	switch typ {
	case ttTypeCastle:
		return board.NewCastling(from, to)
	case ttTypeEnPassant:
		return board.NewEnPassant(from, to)
	case ttTypePromoQ:
		return board.NewPromotion(from, to, board.Queen)
	case ttTypePromoR:
		return board.NewPromotion(from, to, board.Rook)
	case ttTypePromoB:
		return board.NewPromotion(from, to, board.Bishop)
	case ttTypePromoN:
		return board.NewPromotion(from, to, board.Knight)
	default:
		// Quiet or Capture: both decode to a plain from/to move; the
		// "captured kind" is whatever piece the live position has on `to`.
		return board.NewMove(from, to)
	}
}
