package history

import (
	"sync"
	"testing"

	"github.com/kestrelchess/kestrel/internal/board"
)

func TestUpdateAndBonusRoundTrip(t *testing.T) {
	h := New()
	h.Update(board.White, board.E2, board.E4, 300, DefaultReductionFactor)

	got := h.Bonus(board.White, board.E2, board.E4, DefaultBonusScale)
	if got <= 0 {
		t.Fatalf("expected positive bonus after a positive-score update, got %v", got)
	}
}

func TestClearResetsAllEntries(t *testing.T) {
	h := New()
	h.Update(board.White, board.E2, board.E4, 300, DefaultReductionFactor)
	h.Clear()

	if got := h.Bonus(board.White, board.E2, board.E4, DefaultBonusScale); got != 0 {
		t.Fatalf("expected 0 after Clear, got %v", got)
	}
}

func TestUpdateSaturatesRatherThanOverflows(t *testing.T) {
	h := New()
	for i := 0; i < 10000; i++ {
		h.Update(board.White, board.A1, board.A2, 30000, DefaultReductionFactor)
	}
	got := h.entries[index(board.White, board.A1, board.A2)].Load()
	if got > 32767 || got < -32768 {
		t.Fatalf("entry escaped int16 range: %d", got)
	}
}

func TestUpdateIsRaceFree(t *testing.T) {
	h := New()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				h.Update(board.Black, board.D2, board.D4, 50, DefaultReductionFactor)
			}
		}()
	}
	wg.Wait()
	// No assertion beyond "the race detector didn't fire" and the table
	// still answers queries; saturation is covered separately.
	_ = h.Bonus(board.Black, board.D2, board.D4, DefaultBonusScale)
}

func TestDistinctEntriesAreIndependent(t *testing.T) {
	h := New()
	h.Update(board.White, board.E2, board.E4, 300, DefaultReductionFactor)

	if got := h.Bonus(board.White, board.D2, board.D4, DefaultBonusScale); got != 0 {
		t.Fatalf("unrelated entry should be untouched, got %v", got)
	}
	if got := h.Bonus(board.Black, board.E2, board.E4, DefaultBonusScale); got != 0 {
		t.Fatalf("opposite side entry should be untouched, got %v", got)
	}
}
