package engine

import (
	"testing"
	"time"

	"github.com/kestrelchess/kestrel/internal/board"
)

func TestPerftStartingPositionDepthTwo(t *testing.T) {
	e := NewEngine(1)
	pos := board.NewPosition()
	if got := e.Perft(pos, 1); got != 20 {
		t.Fatalf("expected 20 moves at depth 1, got %d", got)
	}
	if got := e.Perft(pos, 2); got != 400 {
		t.Fatalf("expected 400 nodes at depth 2, got %d", got)
	}
}

func TestSearchWithLimitsRespectsNodeCap(t *testing.T) {
	e := NewEngine(1)
	NumWorkers = 2
	pos := board.NewPosition()

	move := e.SearchWithLimits(pos, SearchLimits{Nodes: 50, Infinite: false})
	if move == board.NoMove {
		t.Fatal("expected a legal move from the starting position")
	}

	legal := pos.GenerateLegalMoves()
	found := false
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i) == move {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("search returned a move not in the legal move list: %v", move)
	}
}

func TestSearchWithLimitsMoveTimeStops(t *testing.T) {
	e := NewEngine(1)
	pos := board.NewPosition()

	start := time.Now()
	move := e.SearchWithLimits(pos, SearchLimits{MoveTime: 50 * time.Millisecond})
	elapsed := time.Since(start)

	if move == board.NoMove {
		t.Fatal("expected a legal move")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("search ran far longer than its move time budget: %v", elapsed)
	}
}

func TestClearResetsTreeAndCaches(t *testing.T) {
	e := NewEngine(1)
	pos := board.NewPosition()
	e.SearchWithLimits(pos, SearchLimits{Nodes: 20})
	e.Clear()
	if e.tree != nil {
		t.Fatal("expected Clear to drop the search tree")
	}
}

func TestScoreToStringFormatsCentipawns(t *testing.T) {
	if s := ScoreToString(150); s != "1.50" {
		t.Fatalf("expected 1.50, got %s", s)
	}
	if s := ScoreToString(-150); s != "-1.50" {
		t.Fatalf("expected -1.50, got %s", s)
	}
}
