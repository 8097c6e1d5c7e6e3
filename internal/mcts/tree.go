package mcts

import (
	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/contempt"
	"github.com/kestrelchess/kestrel/internal/hashtable"
	"github.com/kestrelchess/kestrel/internal/history"
	"github.com/kestrelchess/kestrel/internal/nnue"
)

// Cpuct is the PUCT exploration constant at the root (depth 1); it decays
// toward CpuctEnd at deeper plies per spec.md §4.7's
// "end + (start-end)*exp(-decay*(depth-1))". Exposed as a var, not a
// const, since the "CPuct" UCI option needs to rescale it at runtime.
var Cpuct = 1.6

// CpuctEnd, CpuctDecay shape C_puct's depth decay; CpuctVisitScale is the
// AlphaZero-style "c_base" the visit-count scaling multiplier uses
// (1 + ln((N+scale)/scale)). None are UCI-exposed yet; spec.md §6 allows
// implementations to expose "all or a subset" of the tunable scalars.
var (
	CpuctEnd        = 0.6
	CpuctDecay      = 0.0012
	CpuctVisitScale = 19652.0
)

// CpuctVarianceWeight, CpuctVarianceWarmup implement C_puct's variance
// factor (1 + w*(sigma-1)), ramped in linearly over an edge's first
// CpuctVarianceWarmup visits so a single early sample can't swing it.
var (
	CpuctVarianceWeight = 0.2
	CpuctVarianceWarmup = 32.0
)

// ExplorationTau, GiniBase/Mult/Min/Max implement Exploration(parent) =
// exp(tau*ln(max(N,1))) * clamp(giniBase - giniMult*ln(gini+0.001), giniMin, giniMax).
var (
	ExplorationTau = 0.02
	GiniBase       = 1.1
	GiniMult       = 0.03
	GiniMin        = 0.5
	GiniMax        = 1.5
)

// DrawScore is the 0..1 weight a draw counts for in single(), spec.md
// §3's WDL scalar view used by PUCT's Q term and first-play-urgency.
var DrawScore = 0.5

// Config bundles the components one Tree shares across every iteration.
type Config struct {
	Networks  *nnue.Networks
	HashTable *hashtable.Table
	History   *history.Table
	Contempt  int // centipawn-scale contempt rating, 0 disables rescaling

	// GameHistory holds the Zobrist hashes of every position played so far
	// this game, oldest first, not including the tree's own root. New
	// nodes classified during search fold this together with the
	// in-progress rollout path to detect the spec's repetition draw rule
	// (three occurrences of a hash between game history and search path).
	GameHistory []uint64
}

// Tree is one MCTS search tree: a node/edge arena plus the root's current
// position. Tree.AdvanceRoot carries the subtree the already-played move
// explored across moves, copying it into a fresh arena (Arena.Rotate)
// instead of discarding it.
type Tree struct {
	arena *Arena
	root  uint32
	cfg   Config
}

// NewTree creates a tree rooted at pos with a fresh, empty arena.
func NewTree(pos *board.Position, cfg Config) *Tree {
	t := &Tree{arena: NewArena(), cfg: cfg}
	t.root = t.arena.Alloc()
	classify(t.arena.Get(t.root), pos, cfg.GameHistory)
	return t
}

// SetGameHistory refreshes the game-history hashes new nodes check for
// repetition against. Safe to call before Iterate even when the tree is
// reused via AdvanceRoot; nodes already classified keep their (idempotent)
// terminal status regardless.
func (t *Tree) SetGameHistory(hashes []uint64) {
	t.cfg.GameHistory = append([]uint64(nil), hashes...)
}

// RootIndex returns the arena index of the tree's current root.
func (t *Tree) RootIndex() uint32 { return t.root }

// Root returns the tree's current root node.
func (t *Tree) Root() *Node { return t.arena.Get(t.root) }

// RootVisits sums the completed visits across the root's edges, which is
// the node-level visit count PUCT and the time manager both key off.
func (t *Tree) RootVisits() uint64 {
	root := t.Root()
	if !root.Expanded() {
		return 0
	}
	var total uint64
	for _, e := range root.Edges() {
		total += e.Visits()
	}
	return total
}

// BestEdge returns the root's most-visited edge, the standard MCTS choice
// of best move (robust to value noise in a way that picking the highest
// mean score is not).
func (t *Tree) BestEdge() *Edge {
	root := t.Root()
	if !root.Expanded() {
		return nil
	}
	edges := root.Edges()
	if len(edges) == 0 {
		return nil
	}
	best := edges[0]
	for _, e := range edges[1:] {
		if e.Visits() > best.Visits() {
			best = e
		}
	}
	return best
}

// SecondBestVisits returns the visit count of the root's second most
// visited edge, or 0 if there is only one.
func (t *Tree) SecondBestVisits() uint64 {
	root := t.Root()
	if !root.Expanded() {
		return 0
	}
	edges := root.Edges()
	var best, second uint64
	for _, e := range edges {
		v := e.Visits()
		if v > best {
			second = best
			best = v
		} else if v > second {
			second = v
		}
	}
	return second
}

// AdvanceRoot re-roots the tree onto the child reached by playing m at the
// current root, reusing whatever subtree search already built there. If m
// has never been expanded, the tree is reset fresh at the resulting
// position instead. pos must already reflect the position after m.
func (t *Tree) AdvanceRoot(pos *board.Position, m board.Move) {
	root := t.Root()
	if root.Expanded() {
		for _, e := range root.Edges() {
			if e.Move == m && e.HasChild() {
				newArena, newRoot := t.arena.Rotate(e.ChildIndex())
				t.arena = newArena
				t.root = newRoot
				return
			}
		}
	}
	t.arena = NewArena()
	t.root = t.arena.Alloc()
	classify(t.arena.Get(t.root), pos, t.cfg.GameHistory)
}

// classify initializes the arena slot at idx for pos, pre-computing
// terminal status so selection never has to re-derive it. history is every
// Zobrist hash that led to pos, oldest first, not including pos.Hash
// itself (game history plus the rollout path walked to reach it).
func classify(n *Node, pos *board.Position, history []uint64) {
	switch {
	case pos.IsCheckmate():
		// The side to move has just been mated: a loss from its own
		// perspective.
		n.reset(pos.Hash, true, 0, 0)
	case pos.IsStalemate() || pos.IsDraw() || isRepetition(pos.Hash, history):
		n.reset(pos.Hash, true, 0, 1)
	default:
		n.reset(pos.Hash, false, 0, 0)
	}
}

// isRepetition reports whether pos.Hash has now occurred at least three
// times across history plus pos itself, spec.md §4.8's repetition draw
// rule ("≥3 occurrences of the position hash counted across
// history+search path").
func isRepetition(hash uint64, history []uint64) bool {
	count := 1
	for _, h := range history {
		if h == hash {
			count++
			if count >= 3 {
				return true
			}
		}
	}
	return false
}

// rescale applies contempt biasing to a raw value-network WDL estimate
// before it is backed up through the tree.
func (t *Tree) rescale(win, draw float64) (float64, float64) {
	if t.cfg.Contempt == 0 {
		return win, draw
	}
	return contempt.Rescale(win, draw, t.cfg.Contempt)
}
