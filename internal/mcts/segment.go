package mcts

import "sync/atomic"

// segmentSize is the number of nodes per arena segment. Allocating in
// fixed-size slabs instead of growing one big slice means a segment that's
// entirely unreachable after a re-root can be dropped without moving any
// of the nodes still in use.
const segmentSize = 1 << 16 // 65536 nodes per segment

// segment is one slab of the node arena.
type segment struct {
	nodes [segmentSize]Node
}

// Arena is the segmented node pool backing a search tree. Nodes are
// allocated by bumping a global atomic cursor across an append-only list
// of segments; a Rotate call compacts the reachable subtree into a fresh
// arena and discards the rest, bounding memory growth across a long game
// rather than across a single search.
type Arena struct {
	segments []*segment
	cursor   atomic.Uint64 // next free global index
	cap      uint64        // segments allocated * segmentSize
}

// NewArena creates an empty arena with one segment pre-allocated.
func NewArena() *Arena {
	a := &Arena{}
	a.growLocked()
	return a
}

func (a *Arena) growLocked() {
	a.segments = append(a.segments, &segment{})
	a.cap = uint64(len(a.segments)) * segmentSize
}

// Alloc reserves the next free node slot and returns its global index.
// Grows the arena with a new segment if the current one is exhausted.
// Not safe to call concurrently with Rotate or Reset; concurrent Alloc
// calls from search workers are fine since the cursor is atomic and each
// worker only ever touches the slot it was handed.
func (a *Arena) Alloc() uint32 {
	idx := a.cursor.Add(1) - 1
	for idx >= a.cap {
		a.growLocked()
	}
	return uint32(idx)
}

// Get returns the node at a global arena index.
func (a *Arena) Get(idx uint32) *Node {
	seg := idx / segmentSize
	off := idx % segmentSize
	return &a.segments[seg].nodes[off]
}

// Reset discards every segment and starts from a single empty one, for a
// UCI "ucinewgame" or a position with no relation to the prior search.
func (a *Arena) Reset() {
	a.segments = nil
	a.cursor.Store(0)
	a.cap = 0
	a.growLocked()
}

// Len returns how many nodes have been allocated.
func (a *Arena) Len() uint64 {
	return a.cursor.Load()
}

// Rotate builds a fresh arena containing only the subtree reachable from
// root, remapping every surviving node and edge's child index, and returns
// the new arena along with the new index of root. This is what makes
// transpositional re-rooting cheap in wall time even though the old
// subtree may reference millions of nodes: only the reachable fraction is
// copied, and the rest is reclaimed by the old arena going out of scope.
func (a *Arena) Rotate(rootIdx uint32) (*Arena, uint32) {
	fresh := NewArena()
	remap := make(map[uint32]uint32)
	newRoot := rotateCopy(a, fresh, rootIdx, remap)
	return fresh, newRoot
}

func rotateCopy(src, dst *Arena, idx uint32, remap map[uint32]uint32) uint32 {
	if existing, ok := remap[idx]; ok {
		return existing
	}
	srcNode := src.Get(idx)
	newIdx := dst.Alloc()
	remap[idx] = newIdx
	dstNode := dst.Get(newIdx)

	dstNode.hash = srcNode.hash
	dstNode.terminal = srcNode.terminal
	dstNode.termWin = srcNode.termWin
	dstNode.termDraw = srcNode.termDraw
	dstNode.gini = srcNode.gini
	dstNode.state.Store(srcNode.state.Load())

	srcEdges := srcNode.Edges()
	if srcEdges == nil {
		return newIdx
	}
	newEdges := make([]*Edge, len(srcEdges))
	for i, e := range srcEdges {
		ne := newEdge(e.Move, e.prior)
		ne.visits.Store(e.visits.Load())
		ne.winSum.Store(e.winSum.Load())
		ne.drawSum.Store(e.drawSum.Load())
		ne.squaredSum.Store(e.squaredSum.Load())
		if e.HasChild() {
			childNew := rotateCopy(src, dst, e.ChildIndex(), remap)
			ne.child.Store(childNew)
		}
		newEdges[i] = ne
	}
	dstNode.edges = newEdges
	dstNode.widened.Store(srcNode.widened.Load())

	return newIdx
}
