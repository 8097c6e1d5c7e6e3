package uci

import (
	"testing"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/engine"
)

func TestHandlePositionStartposWithMoves(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.handlePosition([]string{"startpos", "moves", "e2e4", "e7e5"})

	if u.position.SideToMove != board.White {
		t.Fatalf("expected White to move after two half-moves, got %v", u.position.SideToMove)
	}
	if len(u.positionHashes) != 3 {
		t.Fatalf("expected 3 recorded hashes (start + 2 moves), got %d", len(u.positionHashes))
	}
}

func TestHandlePositionFEN(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.handlePosition([]string{"fen", "4k3/8/8/8/8/8/8/4K2R", "w", "K", "-", "0", "1"})
	if u.position.SideToMove != board.White {
		t.Fatalf("expected White to move, got %v", u.position.SideToMove)
	}
}

func TestParseMoveRejectsGarbage(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.position = board.NewPosition()
	if m := u.parseMove("zz99"); m != board.NoMove {
		t.Fatalf("expected NoMove for garbage input, got %v", m)
	}
}

func TestParseMoveFindsLegalMove(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.position = board.NewPosition()
	m := u.parseMove("e2e4")
	if m == board.NoMove {
		t.Fatal("expected e2e4 to parse as a legal move from the starting position")
	}
}

func TestToSearchLimitsSwapsClocksForBlack(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.position = board.NewPosition()
	u.position.MakeMove(u.parseMove("e2e4")) // Black to move now

	opts := GoOptions{WTime: 1000, BTime: 2000}
	limits := u.toSearchLimits(opts)
	if limits.WTime != 2000 || limits.BTime != 1000 {
		t.Fatalf("expected clocks swapped so WTime/BTime mean own/opponent for the side to move, got WTime=%v BTime=%v", limits.WTime, limits.BTime)
	}
}
