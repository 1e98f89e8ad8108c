package search

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

// TestMoveCodecRoundTrip checks decode(encode(m), pos) == m for every legal
// move reachable from a handful of positions chosen to exercise all six
// move-type classes, both colors, and promotion with/without capture.
func TestMoveCodecRoundTrip(t *testing.T) {
	positions := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R b KQkq -",
		"n1n5/PPPk4/8/8/8/8/4Kppp/5N1N w - -",
		"n1n5/PPPk4/8/8/8/8/4Kppp/5N1N b - -",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ -",
	}

	for _, fen := range positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}

		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			enc := encodeTTMove(pos, m)
			got := decodeTTMove(pos, enc)
			if got.From() != m.From() || got.To() != m.To() {
				t.Errorf("%s: round-trip from/to mismatch: %s -> enc %d -> %s", fen, m, enc, got)
				continue
			}
			if m.IsPromotion() != got.IsPromotion() || (m.IsPromotion() && m.Promotion() != got.Promotion()) {
				t.Errorf("%s: round-trip promotion mismatch: %s -> %s", fen, m, got)
			}
			if m.IsCastling() != got.IsCastling() {
				t.Errorf("%s: round-trip castling mismatch: %s -> %s", fen, m, got)
			}
			if m.IsEnPassant() != got.IsEnPassant() {
				t.Errorf("%s: round-trip en-passant mismatch: %s -> %s", fen, m, got)
			}
		}
	}
}

// TestMoveCodecNoMove checks the zero sentinel round-trips without a live
// position (decode must not dereference pos for the empty case).
func TestMoveCodecNoMove(t *testing.T) {
	if enc := encodeTTMove(nil, board.NoMove); enc != 0 {
		t.Fatalf("encodeTTMove(NoMove) = %d, want 0", enc)
	}
	if got := decodeTTMove(nil, 0); got != board.NoMove {
		t.Fatalf("decodeTTMove(0) = %s, want NoMove", got)
	}
}

// TestMoveCodecPromotionWithCapture checks that promotions without capture
// (d7-d8) and with capture (d7xc8) both round-trip correctly, in perft
// position 5 with Black's queen taken off d8 so the quiet promotion exists.
func TestMoveCodecPromotionWithCapture(t *testing.T) {
	pos, err := board.ParseFEN("rnb2k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	moves := pos.GenerateLegalMoves()
	var sawQuietPromo, sawCapturePromo bool
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if !m.IsPromotion() {
			continue
		}
		enc := encodeTTMove(pos, m)
		got := decodeTTMove(pos, enc)
		if got.From() != m.From() || got.To() != m.To() || got.Promotion() != m.Promotion() {
			t.Errorf("promotion round-trip failed for %s", m)
		}
		if m.IsCapture(pos) {
			sawCapturePromo = true
		} else {
			sawQuietPromo = true
		}
	}
	if !sawQuietPromo || !sawCapturePromo {
		t.Fatalf("expected both a quiet and a capturing promotion in this position (quiet=%v capture=%v)", sawQuietPromo, sawCapturePromo)
	}
}
