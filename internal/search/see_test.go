package search

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

// TestSEEPawnTakesBishop checks spec §8's SEE example: in
// k4b2/2p1P3/8/3P4/6b1/7P/8/R3K2R w KQ -, h3xg4 wins a bishop for a pawn with
// nothing recapturing on g4, so see(h3->g4) should land near a bishop's value.
func TestSEEPawnTakesBishop(t *testing.T) {
	pos, err := board.ParseFEN("k4b2/2p1P3/8/3P4/6b1/7P/8/R3K2R w KQ -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	from, _ := board.ParseSquare("h3")
	to, _ := board.ParseSquare("g4")
	m := board.NewMove(from, to)

	var buf SeeBuffer
	got := see(pos, m, false, &buf)

	bishop := int16(pieceValue[board.Bishop])
	if got != bishop {
		t.Fatalf("see(h3xg4) = %d, want %d (bishop value, no recapture on g4)", got, bishop)
	}
}

// TestSEELosingCapture checks that a capture that hangs the attacking piece
// to a lower-value recapture evaluates negative.
func TestSEELosingCapture(t *testing.T) {
	// White rook takes a pawn defended by a black pawn: Ra1xa6, recaptured
	// by b7 pawn. Net: +100 (pawn) - 500 (rook) = -400.
	pos, err := board.ParseFEN("4k3/1p6/p7/8/8/8/8/R3K3 w Q -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	from, _ := board.ParseSquare("a1")
	to, _ := board.ParseSquare("a6")
	m := board.NewMove(from, to)

	var buf SeeBuffer
	got := see(pos, m, false, &buf)
	if got >= 0 {
		t.Fatalf("see(a1xa6) = %d, want a negative score (rook is recaptured by a pawn)", got)
	}
}

// TestSEENonCaptureIsZero checks that a quiet move (no piece on the
// destination square) returns 0 unless the caller already knows it gains
// material (en passant, promotion).
func TestSEENonCaptureIsZero(t *testing.T) {
	pos := board.NewPosition()
	from, _ := board.ParseSquare("e2")
	to, _ := board.ParseSquare("e4")
	m := board.NewMove(from, to)

	var buf SeeBuffer
	got := see(pos, m, false, &buf)
	if got != 0 {
		t.Fatalf("see(quiet move) = %d, want 0", got)
	}
}
