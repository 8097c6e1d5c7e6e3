package nnue

import (
	"math"
	"testing"

	"github.com/kestrelchess/kestrel/internal/board"
)

func TestFeatureIndicesInRange(t *testing.T) {
	pos := board.NewPosition()
	for _, idx := range FeatureIndices(pos) {
		if idx < 0 || int(idx) >= InputSize {
			t.Fatalf("feature index %d out of range [0,%d)", idx, InputSize)
		}
	}
}

func TestFeatureIndicesCountMatchesPieceCount(t *testing.T) {
	pos := board.NewPosition()
	got := len(FeatureIndices(pos))
	want := pos.AllOccupied.PopCount()
	if got != want {
		t.Fatalf("got %d active features, want %d (one per piece)", got, want)
	}
}

func TestMoveToIndexWithinBounds(t *testing.T) {
	pos := board.NewPosition()
	moves := []board.Move{
		board.NewQuiet(board.E2, board.E4),
		board.NewDoublePush(board.E2, board.E4),
		board.NewQuiet(board.G1, board.F3),
	}
	for _, m := range moves {
		for _, good := range []bool{false, true} {
			idx := MoveToIndex(pos, m, good)
			if idx < 0 || idx >= numMoveIndices {
				t.Fatalf("move %s index %d out of range [0,%d)", m, idx, numMoveIndices)
			}
		}
	}
}

func TestMoveToIndexSeeFlagDoubles(t *testing.T) {
	pos := board.NewPosition()
	m := board.NewQuiet(board.G1, board.F3)
	good := MoveToIndex(pos, m, true)
	bad := MoveToIndex(pos, m, false)
	if good != bad+fromTo {
		t.Fatalf("see-good index %d should equal see-bad index %d plus fromTo %d", good, bad, fromTo)
	}
}

func TestValueNetworkProducesValidDistribution(t *testing.T) {
	net := NewValueNetwork()
	// Zero weights: biases are also zero, so the forward pass should still
	// produce a finite, normalized distribution.
	wdl := net.Evaluate(board.NewPosition())

	sum := wdl.Win + wdl.Draw + wdl.Loss
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("win+draw+loss = %v, want 1", sum)
	}
	if wdl.Win < 0 || wdl.Draw < 0 || wdl.Loss < 0 {
		t.Fatalf("negative probability in %+v", wdl)
	}
}

func TestPolicySoftmaxNormalizes(t *testing.T) {
	logits := []float64{1, 2, 3, 0.5}
	dist := Softmax(logits, 1.0)

	sum := 0.0
	for _, p := range dist {
		if p < 0 {
			t.Fatalf("negative probability %v", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("distribution sums to %v, want 1", sum)
	}
}

func TestPolicyTemperatureFlattensDistribution(t *testing.T) {
	logits := []float64{0, 5}
	sharp := Softmax(logits, 1.0)
	flat := Softmax(logits, 3.25)

	if flat[1]-flat[0] >= sharp[1]-sharp[0] {
		t.Fatalf("higher temperature should flatten the distribution: sharp=%v flat=%v", sharp, flat)
	}
}

func TestPolicyMoveLogitsShapeMatchesMoves(t *testing.T) {
	net := NewPolicyNetwork()
	pos := board.NewPosition()
	moves := []board.Move{
		board.NewQuiet(board.E2, board.E4),
		board.NewQuiet(board.G1, board.F3),
	}
	logits := net.MoveLogits(pos, moves, []bool{true, false})
	if len(logits) != len(moves) {
		t.Fatalf("got %d logits, want %d", len(logits), len(moves))
	}
	for _, l := range logits {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			t.Fatalf("non-finite logit %v", l)
		}
	}
}
