package mcts

import (
	"sync"
	"testing"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/history"
	"github.com/kestrelchess/kestrel/internal/nnue"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Networks: &nnue.Networks{
			Value:  nnue.NewValueNetwork(),
			Policy: nnue.NewPolicyNetwork(),
		},
		History: history.New(),
	}
}

func TestArenaAllocGrowsAcrossSegments(t *testing.T) {
	a := NewArena()
	var last uint32
	for i := 0; i < segmentSize+10; i++ {
		last = a.Alloc()
	}
	if last != uint32(segmentSize+9) {
		t.Fatalf("expected cursor to reach %d, got %d", segmentSize+9, last)
	}
	if len(a.segments) != 2 {
		t.Fatalf("expected arena to have grown to 2 segments, got %d", len(a.segments))
	}
}

func TestArenaResetDropsAllocations(t *testing.T) {
	a := NewArena()
	a.Alloc()
	a.Alloc()
	a.Reset()
	if a.Len() != 0 {
		t.Fatalf("expected 0 after reset, got %d", a.Len())
	}
}

func TestEdgeBackupAndWDL(t *testing.T) {
	e := newEdge(board.NewQuiet(board.E2, board.E4), 0.5)
	e.Backup(0.8, 0.1)
	e.Backup(0.6, 0.3)
	win, draw, loss := e.WDL()
	if win <= 0 || draw <= 0 {
		t.Fatalf("expected positive win/draw after backups, got win=%v draw=%v loss=%v", win, draw, loss)
	}
	if e.Visits() != 2 {
		t.Fatalf("expected 2 visits, got %d", e.Visits())
	}
}

func TestEdgeVirtualLossDiscouragesReselection(t *testing.T) {
	e := newEdge(board.NewQuiet(board.E2, board.E4), 0.5)
	e.Backup(0.9, 0.05)
	ctx := puctContext{parentVisits: 4, depth: 1, gini: 0.5, fpu: 0.5, drawScore: DrawScore}
	withoutVL := e.puctValue(ctx)
	e.AddVirtualLoss()
	withVL := e.puctValue(ctx)
	if withVL >= withoutVL {
		t.Fatalf("virtual loss should reduce the PUCT score: without=%v with=%v", withoutVL, withVL)
	}
}

func TestNodeProgressiveWideningGrowsWithVisits(t *testing.T) {
	if got := progressiveWidth(1, 20); got != 1 {
		t.Fatalf("expected width 1 at visit 1, got %d", got)
	}
	wide := progressiveWidth(100000, 20)
	if wide <= 1 || wide > 20 {
		t.Fatalf("expected widening to grow and stay capped, got %d", wide)
	}
}

func TestNodeExpandOnlyOneWinner(t *testing.T) {
	n := newNode(0)
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n.tryBeginExpand() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one goroutine to win expansion rights, got %d", wins)
	}
}

func TestTreeIteratePopulatesRoot(t *testing.T) {
	cfg := testConfig(t)
	pos := board.NewPosition()
	tree := NewTree(pos, cfg)

	for i := 0; i < 20; i++ {
		tree.Iterate(pos)
	}

	if tree.RootVisits() == 0 {
		t.Fatal("expected nonzero root visits after iterating")
	}
	best := tree.BestEdge()
	if best == nil {
		t.Fatal("expected a best edge at the root")
	}
	win, draw, loss := tree.RootWDL()
	sum := win + draw + loss
	if sum < 0.99 || sum > 1.01 {
		t.Fatalf("root WDL should sum to ~1, got %v", sum)
	}
}

func TestTreeAdvanceRootReusesSubtree(t *testing.T) {
	cfg := testConfig(t)
	pos := board.NewPosition()
	tree := NewTree(pos, cfg)

	for i := 0; i < 50; i++ {
		tree.Iterate(pos)
	}
	best := tree.BestEdge()
	if best == nil {
		t.Fatal("expected a best edge")
	}
	hadChild := best.HasChild()

	undo := pos.MakeMove(best.Move)
	_ = undo
	tree.AdvanceRoot(pos, best.Move)

	if hadChild && tree.RootVisits() == 0 {
		t.Fatal("expected re-rooted tree to retain visits from the reused subtree")
	}
}
