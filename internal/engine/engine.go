// Package engine wires the search tree, the quantized networks, and the
// shared history/hash caches together into the object the UCI front end
// drives: one Engine per running process, long-lived across "position" and
// "go" commands, reusing its search tree between moves when the new root
// is one move from the old one. A new root two or more moves away gets a
// fresh tree.
package engine

import (
	"context"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/contempt"
	"github.com/kestrelchess/kestrel/internal/hashtable"
	"github.com/kestrelchess/kestrel/internal/history"
	"github.com/kestrelchess/kestrel/internal/mcts"
	"github.com/kestrelchess/kestrel/internal/nnue"
	"github.com/kestrelchess/kestrel/internal/tablebase"
	"github.com/kestrelchess/kestrel/internal/timeman"
)

// NumWorkers is the number of parallel search threads (matches CPU cores).
var NumWorkers = runtime.GOMAXPROCS(0)

// MateScore is the magnitude assigned to a forced-mate centipawn score; any
// |score| above MateScore-100 is reported to UCI as "mate N" instead of
// "cp N".
const MateScore = 30000

// SearchInfo is one "info" line's worth of search progress.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// SearchLimits specifies how long and how far a search may run, mirroring
// the fields a UCI "go" command can supply.
type SearchLimits struct {
	Depth    int           // average-depth cutoff (0 = no limit); advisory only, MCTS has no fixed ply frontier
	Nodes    uint64        // iteration cap (0 = no limit)
	MoveTime time.Duration // fixed think time for this move (0 = use clock-derived limits)
	Infinite bool

	WTime, BTime time.Duration
	WInc, BInc   time.Duration
	MovesToGo    int
	GamePly      int
	MoveOverhead time.Duration
}

// Engine is the chess search engine: one shared MCTS tree, the quantized
// value/policy networks backing its leaf evaluations, and the auxiliary
// tables (butterfly history, value cache, tablebase) every worker reads
// and writes concurrently during a search.
type Engine struct {
	tree      *mcts.Tree
	rootHash  uint64
	rootPos   *board.Position // position the tree's root stands for
	hashTable *hashtable.Table
	history   *history.Table
	networks  *nnue.Networks
	tablebase tablebase.Prober

	contempt         int
	syzygyProbeDepth int
	stopFlag         atomic.Bool

	rootPosHashes []uint64

	moveOverhead time.Duration

	// OnInfo is called from a search worker every timeman.SoftCheckInterval
	// iterations that pass the soft-limit check, and once more when the
	// search ends with a best move.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a hash table sized ttSizeMB megabytes.
// Networks are not loaded; callers must call LoadNNUE before the first
// search that needs a non-terminal evaluation (until then the search uses
// zero-weight networks: the value network gives every leaf an even
// one-third win/draw/loss split and every move gets the same prior).
func NewEngine(ttSizeMB int) *Engine {
	e := &Engine{
		hashTable:    hashtable.New(ttSizeMB),
		history:      history.New(),
		moveOverhead: 25 * time.Millisecond,
	}
	log.Printf("[Engine] Ready with %d search workers (GOMAXPROCS=%d)", NumWorkers, runtime.GOMAXPROCS(0))
	return e
}

// SetTablebase installs a Syzygy (or other) endgame tablebase prober.
func (e *Engine) SetTablebase(tb tablebase.Prober) { e.tablebase = tb }

// SetSyzygyProbeDepth stores the UCI SyzygyProbeDepth value. The search
// does not read it: the tablebase is probed only at the root, before the
// search starts, whatever the depth.
func (e *Engine) SetSyzygyProbeDepth(depth int) { e.syzygyProbeDepth = depth }

// SetContempt sets the WDL rescaling contempt rating applied to every leaf
// evaluation during backup.
func (e *Engine) SetContempt(c int) { e.contempt = c }

// SetMoveOverhead sets the safety margin subtracted from the hard time
// limit to account for GUI/network latency in sending "stop"/"bestmove".
func (e *Engine) SetMoveOverhead(d time.Duration) { e.moveOverhead = d }

// SetPositionHistory records the Zobrist hashes of every position played so
// far this game (oldest first, not including the current position), fed to
// the search tree's terminal classifier so it can detect repetition draws
// that span game history and not just the in-search rollout path.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.rootPosHashes = append([]uint64(nil), hashes...)
}

// HasNNUE reports whether both networks have been loaded.
func (e *Engine) HasNNUE() bool { return e.networks != nil }

// LoadNNUE loads the value and policy network weight files.
func (e *Engine) LoadNNUE(valuePath, policyPath string) error {
	log.Printf("[Engine] Loading networks: value=%s policy=%s", valuePath, policyPath)
	nets, err := nnue.LoadNetworks(valuePath, policyPath)
	if err != nil {
		log.Printf("[Engine] Failed to load networks: %v", err)
		return err
	}
	e.networks = nets
	e.tree = nil // force a fresh tree bound to the new networks
	log.Printf("[Engine] Networks loaded")
	return nil
}

// Stop requests the current search to end as soon as its workers next poll
// the stop flag.
func (e *Engine) Stop() { e.stopFlag.Store(true) }

// Clear resets every cache for a new game: the value hash table, the
// butterfly history, and the search tree.
func (e *Engine) Clear() {
	e.hashTable.Clear()
	e.history.Clear()
	e.tree = nil
}

// Perft performs a move generation correctness test.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := pos.MakeMove(m)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(m, undo)
	}
	return nodes
}

// Search runs with this engine's configured defaults and a fixed
// one-second move time.
func (e *Engine) Search(pos *board.Position) board.Move {
	return e.SearchWithLimits(pos, SearchLimits{MoveTime: 1 * time.Second})
}

// SearchWithLimits runs MCTS from pos until one of limits' stopping
// conditions is met, and returns the most-visited root move.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	if e.tablebase != nil && e.tablebase.Available() {
		if result := e.tablebase.ProbeRoot(pos); result.Found && result.Move != board.NoMove {
			return result.Move
		}
	}

	e.stopFlag.Store(false)
	e.ensureTree(pos)

	startTime := time.Now()
	tlimits := e.computeTimeLimits(limits)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var iterations atomic.Uint64
	poll := newPollState()

	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < NumWorkers; i++ {
		workerPos := pos.Copy()
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				if e.stopFlag.Load() {
					return nil
				}
				e.tree.Iterate(workerPos)
				n := iterations.Add(1)

				if n%timeman.HardCheckInterval == 0 {
					if e.hardLimitReached(limits, tlimits, startTime) {
						e.stopFlag.Store(true)
						return nil
					}
				}
				if n%timeman.SoftCheckInterval == 0 {
					if e.softLimitReached(limits, tlimits, startTime, n, poll) {
						e.stopFlag.Store(true)
						return nil
					}
					e.reportProgress(startTime, n)
				}
			}
		})
	}
	_ = g.Wait()

	best := e.tree.BestEdge()
	if best == nil {
		legal := pos.GenerateLegalMoves()
		if legal.Len() > 0 {
			return legal.Get(0)
		}
		return board.NoMove
	}
	e.reportProgress(startTime, iterations.Load())
	return best.Move
}

// ensureTree builds a fresh tree, or re-roots the existing one, so it is
// anchored at pos before a search begins.
func (e *Engine) ensureTree(pos *board.Position) {
	cfg := mcts.Config{Networks: e.networks, HashTable: e.hashTable, History: e.history, Contempt: e.contempt, GameHistory: e.rootPosHashes}
	if e.networks == nil {
		cfg.Networks = emptyNetworks()
	}

	if e.tree == nil {
		e.tree = mcts.NewTree(pos, cfg)
		e.rootHash = pos.Hash
		e.rootPos = pos.Copy()
		return
	}

	if e.rootHash == pos.Hash {
		e.tree.SetGameHistory(e.rootPosHashes)
		return
	}

	root := e.tree.Root()
	if root.Expanded() && e.rootPos != nil {
		for _, edge := range root.Edges() {
			candidate := e.rootPos.Copy()
			undo := candidate.MakeMove(edge.Move)
			matches := candidate.Hash == pos.Hash
			candidate.UnmakeMove(edge.Move, undo)
			if matches {
				e.tree.SetGameHistory(e.rootPosHashes)
				e.tree.AdvanceRoot(pos, edge.Move)
				e.rootHash = pos.Hash
				e.rootPos = pos.Copy()
				return
			}
		}
	}

	e.tree = mcts.NewTree(pos, cfg)
	e.rootHash = pos.Hash
	e.rootPos = pos.Copy()
}

func emptyNetworks() *nnue.Networks {
	return &nnue.Networks{Value: nnue.NewValueNetwork(), Policy: nnue.NewPolicyNetwork()}
}

// reportProgress emits an "info"-worthy snapshot of the search's current
// best line.
func (e *Engine) reportProgress(startTime time.Time, iterations uint64) {
	if e.OnInfo == nil {
		return
	}
	win, draw, _ := e.tree.RootWDL()
	score := contempt.CentipawnScore(win, draw)
	e.OnInfo(SearchInfo{
		Depth:    progressDepth(e.tree.RootVisits()),
		Score:    score,
		Nodes:    iterations,
		Time:     time.Since(startTime),
		PV:       e.tree.PV(64),
		HashFull: 0,
	})
}

// progressDepth reports a UCI-friendly "depth" proxy for a node-count
// search: log-scaled so it grows the way iterative-deepening depth would,
// without implying MCTS has a fixed ply frontier.
func progressDepth(visits uint64) int {
	d := 1
	for v := uint64(1); v < visits; v *= 2 {
		d++
	}
	return d
}
