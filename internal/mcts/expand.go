package mcts

import (
	"sort"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/nnue"
)

// initialVisibleWidth is how many of a freshly-expanded node's edges,
// ordered by descending prior, are exposed to selection before any visits
// have accrued.
const initialVisibleWidth = 8

// Policy softmax temperatures (spec.md's "pst"): the root gets a flatter
// distribution to encourage the search to spread visits across several
// candidate moves before committing, while every other node sharpens
// toward the network's top choice so deep, rarely-revisited lines don't
// waste iterations on long-tail moves.
const (
	rootPolicyTemperature    = 3.25
	nonRootPolicyTemperature = 1.23
)

// expand generates the full edge set for an unexpanded node at pos,
// scoring each legal move with the policy network's temperature-scaled
// softmax and exposing only the top initialVisibleWidth to selection.
// Caller must hold expansion rights on node (tryBeginExpand must have
// returned true) and pos must be the position node was reached at. isRoot
// selects which of the two policy temperatures this expansion uses.
func expand(policy *nnue.PolicyNetwork, node *Node, pos *board.Position, isRoot bool) {
	legal := pos.GenerateLegalMoves()
	n := legal.Len()
	if n == 0 {
		node.finishExpand(nil, 0, 0)
		return
	}

	moves := make([]board.Move, n)
	seeGood := make([]bool, n)
	for i := 0; i < n; i++ {
		m := legal.Get(i)
		moves[i] = m
		if m.IsCapture() {
			seeGood[i] = pos.SEE(m, 0)
		} else {
			seeGood[i] = true
		}
	}

	logits := policy.MoveLogits(pos, moves, seeGood)
	pst := nonRootPolicyTemperature
	if isRoot {
		pst = rootPolicyTemperature
	}
	probs := nnue.Softmax(logits, pst)

	var sumSq float64
	for _, pr := range probs {
		sumSq += pr * pr
	}
	gini := 1 - sumSq

	edges := make([]*Edge, n)
	for i := 0; i < n; i++ {
		edges[i] = newEdge(moves[i], float32(probs[i]))
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].prior > edges[j].prior })
	if n == 1 {
		edges[0].prior = 1.0
		gini = 0
	}

	node.finishExpand(edges, initialVisibleWidth, gini)
}
