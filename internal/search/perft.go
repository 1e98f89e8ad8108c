package search

import "github.com/hailam/chessplay/internal/board"

// Perft counts leaf nodes reachable in exactly depth plies from pos, for
// move-generator debugging via the UCI `perft` command.
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}

	return nodes
}
