package mcts

import (
	"runtime"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/contempt"
	"github.com/kestrelchess/kestrel/internal/hashtable"
	"github.com/kestrelchess/kestrel/internal/history"
)

func probe(table *hashtable.Table, hash uint64, win, draw *float64) bool {
	w, d, found := table.Probe(hash)
	if !found {
		return false
	}
	*win, *draw = w, d
	return true
}

type pathStep struct {
	edge *Edge
	undo board.UndoInfo
	side board.Color
}

// Iterate runs one MCTS simulation from the tree's root: select down to an
// unexpanded or terminal leaf via PUCT, expand and evaluate it with the
// value network, and back the result up through every edge on the path.
// pos must be the root's position; it is restored to that state before
// Iterate returns.
func (t *Tree) Iterate(pos *board.Position) {
	node := t.Root()
	var path []pathStep
	visited := append([]uint64(nil), t.cfg.GameHistory...)

	for {
		if node.Terminal() {
			break
		}

		if node.tryBeginExpand() {
			expand(t.cfg.Networks.Policy, node, pos, len(path) == 0)
		} else {
			for !node.Expanded() {
				runtime.Gosched()
			}
		}

		edges := node.Edges()
		if len(edges) == 0 {
			break
		}

		var total uint64
		for _, e := range edges {
			total += e.Visits()
		}
		node.Widen(total)

		side := pos.SideToMove
		edge := selectEdge(node, edges, t.cfg.History, side, float64(total), len(path)+1)
		edge.AddVirtualLoss()

		undo := pos.MakeMove(edge.Move)
		path = append(path, pathStep{edge: edge, undo: undo, side: side})
		visited = append(visited, pos.Hash)

		if !edge.HasChild() {
			newIdx := t.arena.Alloc()
			classify(t.arena.Get(newIdx), pos, visited[:len(visited)-1])
			if !edge.SetChild(newIdx) {
				// another worker expanded this edge first; use its child.
			}
			node = t.arena.Get(edge.ChildIndex())
			break
		}

		node = t.arena.Get(edge.ChildIndex())
	}

	var win, draw float64
	switch {
	case node.Terminal():
		win, draw = node.TerminalWDL()
	case t.cfg.HashTable != nil && probe(t.cfg.HashTable, pos.Hash, &win, &draw):
		// cached estimate, skip the value network entirely.
	default:
		wdl := t.cfg.Networks.Value.Evaluate(pos)
		win, draw = wdl.Win, wdl.Draw
		win, draw = contempt.DrawPull(win, draw, int(pos.HalfMoveClock), float64(len(path)))
		if t.cfg.HashTable != nil {
			t.cfg.HashTable.Store(pos.Hash, win, draw)
		}
	}
	win, draw = t.rescale(win, draw)

	for i := len(path) - 1; i >= 0; i-- {
		s := path[i]

		loss := 1 - win - draw
		win, draw = loss, draw

		s.edge.Backup(win, draw)
		s.edge.RemoveVirtualLoss()

		if t.cfg.History != nil {
			cp := contempt.CentipawnScore(win, draw)
			t.cfg.History.Update(s.side, s.edge.Move.From(), s.edge.Move.To(), cp, history.DefaultReductionFactor)
		}

		pos.UnmakeMove(s.edge.Move, s.undo)
	}
}
