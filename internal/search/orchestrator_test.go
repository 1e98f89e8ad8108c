package search

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(NewCache(16, 4), 1)
}

// TestMateInOne checks spec §8's mate-in-1 scenario: from
// 4k3/8/4K3/8/8/8/8/5Q2 w - - 0 1, a depth-2 search finds Qf1-f8# and scores
// it as an imminent mate.
func TestMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/4K3/8/8/8/8/5Q2 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	o := newTestOrchestrator()
	hist := NewHistory()
	hist.Push(pos.Hash, true)

	res := o.Search(pos, hist, Limits{UCILimits{Depth: 2}}, 0)

	if res.Score < MateScore-1 {
		t.Fatalf("score = %d, want >= %d (mate in 1)", res.Score, MateScore-1)
	}
	if res.Move.From().String() != "f1" || res.Move.To().String() != "f8" {
		t.Fatalf("bestmove = %s, want f1f8", res.Move)
	}
}

// TestPhilidorLikeDraw checks spec §8's drawn king-and-pawn scenario: from
// 8/8/8/8/8/3k4/3p4/3K4 b - - 0 1, a depth-6+ search evaluates the position
// as a draw (White can always shuffle into the drawing corner/stalemate
// pattern against a lone pawn it blockades).
func TestPhilidorLikeDraw(t *testing.T) {
	pos, err := board.ParseFEN("8/8/8/8/8/3k4/3p4/3K4 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	o := newTestOrchestrator()
	hist := NewHistory()
	hist.Push(pos.Hash, true)

	res := o.Search(pos, hist, Limits{UCILimits{Depth: 6}}, 0)

	if res.Score != 0 {
		t.Fatalf("score = %d, want 0 (draw)", res.Score)
	}
}

// TestRepetitionDraw checks spec §8's repetition scenario: replaying
// Nf3 Nf6 Ng1 Ng8 twice from the starting position returns to the start
// position for the third time, which the search must recognize as an
// already-drawn root rather than searching it as a fresh game.
func TestRepetitionDraw(t *testing.T) {
	pos := board.NewPosition()
	hist := NewHistory()
	hist.Push(pos.Hash, true)

	replay := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"}
	for _, uci := range replay {
		mv, err := board.ParseMove(uci, pos)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", uci, err)
		}
		isReset := mv.IsCapture(pos) || pos.PieceAt(mv.From()).Type() == board.Pawn
		pos.MakeMove(mv)
		hist.Push(pos.Hash, isReset)
	}

	o := newTestOrchestrator()
	res := o.Search(pos, hist, Limits{UCILimits{Depth: 4}}, hist.Len()-1)

	if res.Score != 0 {
		t.Fatalf("score = %d, want 0 (threefold repetition of the starting position)", res.Score)
	}
}
