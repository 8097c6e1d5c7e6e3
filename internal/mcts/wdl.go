package mcts

import "github.com/kestrelchess/kestrel/internal/board"

// PV returns the principal variation from the tree's current root,
// following the most-visited edge at each step until a leaf, an
// unexpanded node, or maxLen moves is reached.
func (t *Tree) PV(maxLen int) []board.Move {
	var pv []board.Move
	idx := t.root
	for len(pv) < maxLen {
		node := t.arena.Get(idx)
		if !node.Expanded() || node.Terminal() {
			break
		}
		edges := node.Edges()
		if len(edges) == 0 {
			break
		}
		best := edges[0]
		for _, e := range edges[1:] {
			if e.Visits() > best.Visits() {
				best = e
			}
		}
		if best.Visits() == 0 {
			break
		}
		pv = append(pv, best.Move)
		if !best.HasChild() {
			break
		}
		idx = best.ChildIndex()
	}
	return pv
}

// aggregateWDL sums a node's edges into a visit-weighted WDL triple, the
// "aggregated WDL (may be recomputed by summing edges)" view of a node's
// own score described in spec.md's node data model. Edges with no visits
// yet contribute nothing; a node with no visited edges reports the same
// neutral 0/1/0 default as a single zero-visit edge.
func aggregateWDL(edges []*Edge) (win, draw, loss float64) {
	var totalVisits uint64
	for _, e := range edges {
		totalVisits += e.Visits()
	}
	if totalVisits == 0 {
		return 0, 1, 0
	}
	for _, e := range edges {
		w, d, l := e.WDL()
		weight := float64(e.Visits()) / float64(totalVisits)
		win += w * weight
		draw += d * weight
		loss += l * weight
	}
	return win, draw, loss
}

// RootWDL returns the visit-weighted average WDL across the root's edges,
// the tree's best current estimate of the position's outcome.
func (t *Tree) RootWDL() (win, draw, loss float64) {
	root := t.Root()
	if !root.Expanded() {
		return 0, 1, 0
	}
	return aggregateWDL(root.Edges())
}
