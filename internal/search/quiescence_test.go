package search

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func newQuiescenceWorker() *worker {
	w := &worker{
		id:        0,
		cache:     NewCache(0, 1),
		pawnTable: NewPawnTable(1),
		rootPly:   0,
	}
	w.orch = &Orchestrator{Cache: w.cache, Threads: 1}
	w.state = NewSearchState(NewHistory(), w.shouldStop)
	return w
}

// TestQuiescenceBound checks the §8 invariant that quiescence never escapes
// [-MateScore, +MateScore] for the quiet and tactical positions below, and
// never returns StandardScore outside of a stop condition.
func TestQuiescenceBound(t *testing.T) {
	positions := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/8/8/8/8/3k4/3p4/3K4 b - - 0 1",
	}

	for _, fen := range positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		w := newQuiescenceWorker()
		score := w.quiescence(pos, w.pawnTable, -MateScore, MateScore, maxQDepth, 0)
		if w.state.stop {
			t.Fatalf("%s: unexpected stop", fen)
		}
		if score == StandardScore {
			t.Fatalf("%s: quiescence returned StandardScore without a stop", fen)
		}
		if score < -MateScore || score > MateScore {
			t.Fatalf("%s: quiescence score %d escaped [-%d, %d]", fen, score, MateScore, MateScore)
		}
	}
}

// TestQuiescenceCheckmateInCheck checks that quiescence recognizes a
// checkmate reached with no captures available (fool's-mate-style) rather
// than returning a static stand-pat value.
func TestQuiescenceCheckmateInCheck(t *testing.T) {
	// Fool's mate: after 1.f3 e5 2.g4 Qh4#, Black's queen mates White with
	// no escape, no block, no capture of the queen.
	pos, err := board.ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	w := newQuiescenceWorker()
	score := w.quiescence(pos, w.pawnTable, -MateScore, MateScore, maxQDepth, 0)
	if score > -(MateScore - maxPly) {
		t.Fatalf("score = %d, want a near-mate score for White to move in checkmate", score)
	}
}
