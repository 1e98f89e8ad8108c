package search

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessplay/internal/board"
)

// Limits mirrors the UCI `go` command's parameters (§6): a fixed depth, a
// fixed move time, or a clock-derived budget, plus node/infinite controls.
type Limits struct {
	UCILimits
}

// Info is one iteration's reportable state, handed to Orchestrator.OnInfo so
// the UCI layer can format `info depth ... pv ...` lines without reaching
// into search internals.
type Info struct {
	Depth int
	Score int16
	Nodes uint64
	NPS   uint64
	Time  time.Duration
	PV    []board.Move
}

// Result is the outcome of one Orchestrator.Search call.
type Result struct {
	Move  board.Move
	Score int16
	PV    []board.Move
	Depth int
}

// worker is one lazy-SMP search thread: its own SearchState, pawn-hash
// table, and history copy, but the orchestrator's shared Cache.
type worker struct {
	id        int
	cache     *Cache
	state     *SearchState
	pawnTable *PawnTable
	rootPly   int
	orch      *Orchestrator
}

func (w *worker) shouldStop() bool {
	return w.orch.stopFlag.Load()
}

// Orchestrator is the SearchOrchestrator of §4.7: it spawns N worker
// goroutines sharing one Cache, runs each through iterative deepening with
// aspiration windows, and keeps the deepest completed iteration's line as
// the result once the shared stop flag trips.
type Orchestrator struct {
	Cache   *Cache
	Threads int
	OnInfo  func(Info)

	stopFlag atomic.Bool
}

// NewOrchestrator builds an orchestrator around a shared cache, ready to
// drive `threads` lazy-SMP workers.
func NewOrchestrator(cache *Cache, threads int) *Orchestrator {
	if threads < 1 {
		threads = 1
	}
	return &Orchestrator{Cache: cache, Threads: threads}
}

// Stop latches the shared stop flag; every worker's next checkup observes it
// within 1024 nodes.
func (o *Orchestrator) Stop() { o.stopFlag.Store(true) }

// Search runs iterative deepening to the limits given, starting from root
// with history already replayed up to and including root (its last entry is
// root's own hash); ply is the
// current game ply (half-move count since the start of the game), used for
// time allocation and cache aging. It returns once every worker has
// stopped, reporting the deepest completed iteration.
func (o *Orchestrator) Search(root *board.Position, history *History, limits Limits, ply int) Result {
	o.stopFlag.Store(false)

	tm := NewTimeManager()
	tm.Init(limits.UCILimits, root.SideToMove, ply)

	deadline := time.AfterFunc(tm.MaximumTime(), o.Stop)
	defer deadline.Stop()

	rootPly := ply

	workers := make([]*worker, o.Threads)
	for i := range workers {
		workers[i] = &worker{
			id:        i,
			cache:     o.Cache,
			pawnTable: NewPawnTable(4),
			rootPly:   rootPly,
			orch:      o,
		}
		workers[i].state = NewSearchState(history.Clone(), workers[i].shouldStop)
	}

	var best Result
	var lastBestMove board.Move
	stability := 0
	instability := 0

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth > MaxSearchDepth {
		maxDepth = MaxSearchDepth
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if o.stopFlag.Load() {
			break
		}

		type iterResult struct {
			score int16
			pv    []board.Move
		}
		results := make([]iterResult, len(workers))

		var g errgroup.Group
		for i, w := range workers {
			i, w := i, w
			g.Go(func() error {
				w.state.Reset()
				w.state.stats.Start()
				pos := root.Copy()
				score := aspirationSearch(w, pos, depth, best.Score, depth > 1)
				if !w.state.stop {
					w.state.refreshPVHint()
				}
				pv := collectPV(w.state)
				results[i] = iterResult{score: score, pv: pv}
				return nil
			})
		}
		_ = g.Wait()

		if o.stopFlag.Load() && depth > 1 {
			break
		}

		// Among lazy-SMP workers, the deepest/best-scoring completed line
		// wins; ties favor the lowest-id worker's line for determinism.
		bestIdx := 0
		for i := 1; i < len(results); i++ {
			if results[i].score > results[bestIdx].score {
				bestIdx = i
			}
		}
		r := results[bestIdx]
		if len(r.pv) == 0 {
			break
		}

		best = Result{Move: r.pv[0], Score: r.score, PV: r.pv, Depth: depth}

		if r.pv[0] == lastBestMove {
			stability++
			instability = 0
		} else {
			instability++
			stability = 0
		}
		lastBestMove = r.pv[0]
		tm.AdjustForStability(stability)
		tm.AdjustForInstability(instability)

		if o.OnInfo != nil {
			o.OnInfo(Info{
				Depth: depth,
				Score: best.Score,
				Nodes: totalNodes(workers),
				NPS:   workers[0].state.stats.NPS(),
				Time:  tm.Elapsed(),
				PV:    best.PV,
			})
		}

		if best.Score >= MateScore-int16(depth) || best.Score <= -(MateScore-int16(depth)) {
			break
		}
		if tm.PastOptimum() && stability >= 4 {
			break
		}
		if tm.ShouldStop() {
			break
		}
	}

	return best
}

// aspirationSearch runs pvs at depth with a narrow window around
// prevScore (widening geometrically on fail-high/fail-low) when useAspiration
// is set, otherwise a full [-INF,+INF] window (§4.7: "if used").
func aspirationSearch(w *worker, pos *board.Position, depth int, prevScore int16, useAspiration bool) int16 {
	color := colorSign(pos.SideToMove)

	if !useAspiration {
		return w.pvs(-MateScore, MateScore, depth, 0, pos, color)
	}

	window := int16(25)
	alpha := prevScore - window
	beta := prevScore + window

	for {
		score := w.pvs(alpha, beta, depth, 0, pos, color)
		if w.state.stop {
			return score
		}
		if score <= alpha {
			alpha -= window
			window *= 2
		} else if score >= beta {
			beta += window
			window *= 2
		} else {
			return score
		}
		if alpha <= -MateScore && beta >= MateScore {
			return w.pvs(-MateScore, MateScore, depth, 0, pos, color)
		}
		if alpha < -MateScore {
			alpha = -MateScore
		}
		if beta > MateScore {
			beta = MateScore
		}
	}
}

func collectPV(state *SearchState) []board.Move {
	line := &state.pvTable[0]
	pv := make([]board.Move, line.n)
	copy(pv, line.moves[:line.n])
	return pv
}

func totalNodes(workers []*worker) uint64 {
	var total uint64
	for _, w := range workers {
		total += w.state.stats.Nodes
	}
	return total
}

// FormatPV renders a principal variation in UCI coordinate notation.
func FormatPV(pv []board.Move) string {
	s := ""
	for i, m := range pv {
		if i > 0 {
			s += " "
		}
		s += m.String()
	}
	return s
}

