package uci

import (
	"bufio"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/search"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	orch     *search.Orchestrator
	position *board.Position
	history  *search.History

	hashMB    int
	threads   int
	hashLocks int

	searching  bool
	searchDone chan struct{}

	profileFile *os.File
}

// New creates a new UCI protocol handler around a cache sized hashMB
// megabytes split hashLocks ways, searching with threads lazy-SMP workers.
func New(hashMB, threads, hashLocks int) *UCI {
	cache := search.NewCache(hashMB, hashLocks)
	u := &UCI{
		orch:      search.NewOrchestrator(cache, threads),
		position:  board.NewPosition(),
		history:   search.NewHistory(),
		hashMB:    hashMB,
		threads:   threads,
		hashLocks: hashLocks,
	}
	u.history.Push(u.position.Hash, true)
	return u
}

// Run starts the UCI main loop.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleQuit()
		case "setoption":
			u.handleSetOption(args)
		case "d":
			fmt.Println(u.position.String())
		case "perft":
			u.handlePerft(args)
		}
	}
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	fmt.Println("id name ChessPlay")
	fmt.Println("id author ChessPlay Team")
	fmt.Println()
	fmt.Printf("option name Hash type spin default %d min %d max %d\n", search.DefaultHashMB, search.MinHashMB, search.MaxHashMB)
	fmt.Printf("option name Threads type spin default %d min 1 max 512\n", u.threads)
	fmt.Printf("option name HashLocks type spin default %d min %d max %d\n", search.DefaultLocks, search.MinLocks, search.MaxLocks)
	fmt.Println("uciok")
}

// handleNewGame resets the cache and heuristic tables for a new game.
func (u *UCI) handleNewGame() {
	u.orch.Cache.Clear()
	u.position = board.NewPosition()
	u.history = search.NewHistory()
	u.history.Push(u.position.Hash, true)
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var moveStart int

	if args[0] == "startpos" {
		u.position = board.NewPosition()
		moveStart = 1
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	} else if args[0] == "fen" {
		fenEnd := len(args)
		for i, arg := range args[1:] {
			if arg == "moves" {
				fenEnd = i + 1
				break
			}
		}

		fenStr := strings.Join(args[1:fenEnd], " ")
		pos, err := board.ParseFEN(fenStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string Invalid FEN: %v\n", err)
			return
		}
		u.position = pos

		moveStart = len(args)
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	} else {
		return
	}

	u.history = search.NewHistory()
	u.history.Push(u.position.Hash, true)

	if moveStart < len(args) {
		for _, moveStr := range args[moveStart:] {
			move := u.parseMove(moveStr)
			if move == board.NoMove {
				fmt.Fprintf(os.Stderr, "info string Invalid move: %s\n", moveStr)
				return
			}
			wasReset := move.IsCapture(u.position) || u.position.PieceAt(move.From()).Type() == board.Pawn
			u.position.MakeMove(move)
			u.position.UpdateCheckers()
			u.history.Push(u.position.Hash, wasReset)
		}
	}
}

// parseMove converts a UCI move string to a board.Move.
func (u *UCI) parseMove(moveStr string) board.Move {
	if len(moveStr) < 4 {
		return board.NoMove
	}

	fromFile := int(moveStr[0] - 'a')
	fromRank := int(moveStr[1] - '1')
	toFile := int(moveStr[2] - 'a')
	toRank := int(moveStr[3] - '1')

	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 ||
		toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return board.NoMove
	}

	from := board.NewSquare(fromFile, fromRank)
	to := board.NewSquare(toFile, toRank)

	var promo board.PieceType
	if len(moveStr) == 5 {
		switch moveStr[4] {
		case 'q':
			promo = board.Queen
		case 'r':
			promo = board.Rook
		case 'b':
			promo = board.Bishop
		case 'n':
			promo = board.Knight
		}
	}

	moves := u.position.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() == from && m.To() == to {
			if promo != 0 {
				if m.IsPromotion() && m.Promotion() == promo {
					return m
				}
			} else if !m.IsPromotion() {
				return m
			}
		}
	}

	return board.NoMove
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	opts := u.parseGoOptions(args)
	limits := u.calculateLimits(opts)

	u.orch.OnInfo = func(info search.Info) {
		u.sendInfo(info)
	}

	u.searching = true
	u.searchDone = make(chan struct{})

	pos := u.position.Copy()
	hist := u.history.Clone()
	ply := u.history.Len()

	go func() {
		defer close(u.searchDone)

		result := u.orch.Search(pos, hist, limits, ply)

		u.searching = false

		if result.Move != board.NoMove {
			fmt.Printf("bestmove %s\n", result.Move.String())
			return
		}

		legal := u.position.Copy().GenerateLegalMoves()
		if legal.Len() > 0 {
			fmt.Printf("bestmove %s\n", legal.Get(0).String())
		} else {
			fmt.Println("bestmove 0000")
		}
	}()
}

// parseGoOptions parses "go" command arguments.
func (u *UCI) parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				n, _ := strconv.ParseUint(args[i+1], 10, 64)
				opts.Nodes = n
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// calculateLimits converts GoOptions to search.Limits.
func (u *UCI) calculateLimits(opts GoOptions) search.Limits {
	limits := search.Limits{}

	if opts.Infinite {
		limits.Infinite = true
		return limits
	}

	if opts.Depth > 0 {
		limits.Depth = opts.Depth
	}
	if opts.Nodes > 0 {
		limits.Nodes = opts.Nodes
	}
	if opts.MoveTime > 0 {
		limits.MoveTime = opts.MoveTime
	} else {
		limits.Time[board.White] = opts.WTime
		limits.Time[board.Black] = opts.BTime
		limits.Inc[board.White] = opts.WInc
		limits.Inc[board.Black] = opts.BInc
		limits.MovesToGo = opts.MovesToGo
	}

	return limits
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info search.Info) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	if info.Score > search.MateScore-100 {
		mateIn := (search.MateScore - int(info.Score) + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else if info.Score < -search.MateScore+100 {
		mateIn := -(search.MateScore + int(info.Score) + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", info.NPS))
	}

	parts = append(parts, fmt.Sprintf("hashfull %d", int(u.orch.Cache.GetStatus())))

	if len(info.PV) > 0 {
		parts = append(parts, "pv "+search.FormatPV(info.PV))
	}

	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search.
func (u *UCI) handleStop() {
	if u.searching {
		u.orch.Stop()
		<-u.searchDone
	}
}

// handleQuit exits the program.
func (u *UCI) handleQuit() {
	u.handleStop()
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		fmt.Fprintf(os.Stderr, "info string CPU profile saved\n")
	}
	os.Exit(0)
}

// handleSetOption processes "setoption" commands (§6): Hash, Threads,
// HashLocks, and CPU profiling.
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err == nil {
			if mb < search.MinHashMB {
				mb = search.MinHashMB
			}
			if mb > search.MaxHashMB {
				mb = search.MaxHashMB
			}
			u.hashMB = mb
			u.orch.Cache = search.NewCache(u.hashMB, u.hashLocks)
		}
	case "threads":
		n, err := strconv.Atoi(value)
		if err == nil && n >= 1 {
			u.threads = n
			u.orch.Threads = n
		}
	case "hashlocks":
		n, err := strconv.Atoi(value)
		if err == nil {
			if n < search.MinLocks {
				n = search.MinLocks
			}
			if n > search.MaxLocks {
				n = search.MaxLocks
			}
			u.hashLocks = n
			u.orch.Cache = search.NewCache(u.hashMB, u.hashLocks)
		}
	case "cpuprofile":
		if u.profileFile != nil {
			pprof.StopCPUProfile()
			u.profileFile.Close()
			fmt.Fprintf(os.Stderr, "info string CPU profile stopped\n")
			u.profileFile = nil
		}
		if value != "" && value != "stop" {
			f, err := os.Create(value)
			if err != nil {
				fmt.Fprintf(os.Stderr, "info string Failed to create profile: %v\n", err)
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				fmt.Fprintf(os.Stderr, "info string Failed to start profile: %v\n", err)
				return
			}
			u.profileFile = f
			fmt.Fprintf(os.Stderr, "info string CPU profiling to %s\n", value)
		}
	}
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := search.Perft(u.position, depth)
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", nodes)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		fmt.Printf("NPS: %.0f\n", nps)
	}
}
