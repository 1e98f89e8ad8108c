package search

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

// TestPerftStartingPosition cross-checks Perft against the well-known node
// counts from the starting position, matching the depth-5 scenario in
// spec §8 (4,865,609 leaves at depth 5).
func TestPerftStartingPosition(t *testing.T) {
	tests := []struct {
		depth    int
		expected uint64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
		{5, 4865609},
	}

	for _, tt := range tests {
		pos := board.NewPosition()
		got := Perft(pos, tt.depth)
		if got != tt.expected {
			t.Errorf("Perft(depth=%d) = %d, want %d", tt.depth, got, tt.expected)
		}
	}
}
