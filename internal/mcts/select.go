package mcts

import (
	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/history"
)

// historyWeight scales the butterfly history's contribution into the PUCT
// score, kept small since it's a coarse (side,from,to) signal layered on
// top of the position-specific policy prior.
const historyWeight = 0.35

// selectEdge picks the edge to descend through among a node's currently
// widened edges, maximizing PUCT score plus a butterfly-history nudge.
// depth is the ply from the root (root's own selection is depth 1), used
// by C_puct's depth decay.
func selectEdge(node *Node, edges []*Edge, hist *history.Table, side board.Color, parentVisits float64, depth int) *Edge {
	width := node.VisibleWidth()
	if width > len(edges) || width == 0 {
		width = len(edges)
	}

	// First-play urgency for an edge with no visits yet: the parent's own
	// aggregated score, from the opponent's perspective (spec.md §4.7).
	_, parentDraw, parentLoss := aggregateWDL(edges)
	fpu := single(parentLoss, parentDraw, DrawScore)

	ctx := puctContext{
		parentVisits: parentVisits,
		depth:        depth,
		gini:         node.Gini(),
		fpu:          fpu,
		drawScore:    DrawScore,
	}

	var best *Edge
	var bestScore float64
	for i := 0; i < width; i++ {
		e := edges[i]
		score := e.puctValue(ctx)
		if hist != nil {
			score += historyWeight * hist.Bonus(side, e.Move.From(), e.Move.To(), history.DefaultBonusScale)
		}
		if best == nil || score > bestScore {
			best = e
			bestScore = score
		}
	}
	return best
}
