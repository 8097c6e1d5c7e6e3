package mcts

import (
	"sync"
	"sync/atomic"
)

// nodeState tracks the expansion lifecycle of a Node so concurrent workers
// agree on who is responsible for generating its edges.
type nodeState uint32

const (
	stateUnexpanded nodeState = iota
	stateExpanding
	stateExpanded
)

// Node is one position in the search tree: its Zobrist hash (for
// transposition detection during re-rooting), terminal classification, and
// the edges for every legal move, populated once by whichever worker wins
// the expansion race.
type Node struct {
	hash     uint64
	terminal bool
	termWin  float64 // only meaningful if terminal
	termDraw float64

	// gini is the Gini impurity (1 - sum(p_i^2)) of the policy distribution
	// this node was expanded with, published alongside edges and read only
	// once Expanded() is true. Fed into Exploration(parent) (see puctValue):
	// a peaked policy (low impurity) narrows PUCT's exploration term, a
	// flat one widens it.
	gini float64

	state atomic.Uint32

	mu    sync.Mutex // guards edges during the one-time expansion
	edges []*Edge

	// widened tracks how many of edges are currently visible to selection,
	// for progressive widening: a node's full move list is generated
	// eagerly, but only the top-K by prior are exposed until its visit
	// count justifies opening up more.
	widened atomic.Uint32
}

func newNode(hash uint64) *Node {
	return &Node{hash: hash}
}

func newTerminalNode(hash uint64, win, draw float64) *Node {
	n := &Node{hash: hash, terminal: true, termWin: win, termDraw: draw}
	n.state.Store(uint32(stateExpanded))
	return n
}

// reset reinitializes an arena slot in place for reuse, without copying the
// Node struct (and its embedded mutex/atomics) by value.
func (n *Node) reset(hash uint64, terminal bool, win, draw float64) {
	n.hash = hash
	n.terminal = terminal
	n.termWin = win
	n.termDraw = draw
	n.edges = nil
	n.gini = 0
	n.widened.Store(0)
	if terminal {
		n.state.Store(uint32(stateExpanded))
	} else {
		n.state.Store(uint32(stateUnexpanded))
	}
}

// Hash returns the node's Zobrist key.
func (n *Node) Hash() uint64 { return n.hash }

// Terminal reports whether this node is a game-over leaf, in which case its
// WDL is fixed rather than estimated by the value network.
func (n *Node) Terminal() bool { return n.terminal }

// TerminalWDL returns the fixed outcome of a terminal node.
func (n *Node) TerminalWDL() (win, draw float64) { return n.termWin, n.termDraw }

// Expanded reports whether edges have been generated for this node.
func (n *Node) Expanded() bool {
	return nodeState(n.state.Load()) == stateExpanded
}

// tryBeginExpand attempts to claim expansion rights for this node. Only one
// concurrent caller succeeds; others should wait or treat the node as a
// leaf for this iteration.
func (n *Node) tryBeginExpand() bool {
	return n.state.CompareAndSwap(uint32(stateUnexpanded), uint32(stateExpanding))
}

// finishExpand installs the generated edges and their policy's Gini
// impurity, and marks the node ready for selection.
func (n *Node) finishExpand(edges []*Edge, initialWidth int, gini float64) {
	n.mu.Lock()
	n.edges = edges
	n.mu.Unlock()
	n.gini = gini
	if initialWidth > len(edges) {
		initialWidth = len(edges)
	}
	n.widened.Store(uint32(initialWidth))
	n.state.Store(uint32(stateExpanded))
}

// Gini returns the Gini impurity of the policy distribution this node was
// expanded with. Only valid once Expanded.
func (n *Node) Gini() float64 { return n.gini }

// Edges returns the full edge set. Only valid once Expanded.
func (n *Node) Edges() []*Edge {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.edges
}

// VisibleWidth returns how many of the node's edges, ordered by descending
// prior, are currently open to selection.
func (n *Node) VisibleWidth() int {
	return int(n.widened.Load())
}

// Widen raises the number of edges open to selection to
// progressiveWidth(totalVisits), capped at the full edge count, and never
// lowers it; one call may open several edges at once. Progressive widening
// grows the branching factor by one edge per widenBase-fold increase in
// visits (logarithmic in visits) early in a node's life, rather than
// evaluating every move from the first visit.
func (n *Node) Widen(totalVisits uint64) {
	total := len(n.Edges())
	for {
		cur := n.widened.Load()
		if int(cur) >= total {
			return
		}
		target := progressiveWidth(totalVisits, total)
		if target <= int(cur) {
			return
		}
		if n.widened.CompareAndSwap(cur, uint32(target)) {
			return
		}
	}
}

// progressiveWidth computes how many children should be visible at a given
// visit count: one more child for every widenBase-fold increase in visits,
// capped at the node's full move count.
func progressiveWidth(visits uint64, total int) int {
	const widenBase = 1.6
	width := 1
	for v := float64(1); v < float64(visits); v *= widenBase {
		width++
	}
	if width > total {
		width = total
	}
	if width < 1 && total > 0 {
		width = 1
	}
	return width
}
