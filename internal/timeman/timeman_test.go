package timeman

import (
	"math"
	"testing"
)

func TestCalculateInfiniteDisablesLimits(t *testing.T) {
	l := Calculate(60000, 0, 0, 10, true)
	if !l.Infinite {
		t.Fatal("expected Infinite to be set")
	}
	snap := Snapshot{ElapsedMS: 1 << 40, PreviousScoreCP: math.NaN()}
	if l.HardLimitReached(snap) || l.SoftLimitReached(snap) {
		t.Fatal("infinite search must never report a limit reached")
	}
}

func TestCalculateMovesToGoSplitsEvenly(t *testing.T) {
	l := Calculate(30000, 0, 10, 20, false)
	if l.Soft != l.Hard {
		t.Fatalf("with movesToGo given, soft and hard should match: soft=%d hard=%d", l.Soft, l.Hard)
	}
	if l.Soft != 3000 {
		t.Fatalf("expected an even 3000ms split, got %d", l.Soft)
	}
}

func TestCalculateSuddenDeathKeepsHardBelowBudget(t *testing.T) {
	l := Calculate(60000, 500, 0, 40, false)
	if l.Hard == 0 || l.Soft == 0 {
		t.Fatal("expected nonzero soft and hard limits")
	}
	if l.Hard > uint64(float64(60000)*0.85) {
		t.Fatalf("hard limit should never exceed 85%% of remaining time, got %d", l.Hard)
	}
	if l.Soft > l.Hard {
		t.Fatalf("soft limit should never exceed hard: soft=%d hard=%d", l.Soft, l.Hard)
	}
}

func TestCalculateZeroTimeGivesZeroLimits(t *testing.T) {
	l := Calculate(0, 0, 0, 10, false)
	if l.Soft != 0 || l.Hard != 0 {
		t.Fatalf("expected zero limits with no time remaining, got soft=%d hard=%d", l.Soft, l.Hard)
	}
}

func TestHardLimitReachedAccountsForMoveOverhead(t *testing.T) {
	l := Limits{Soft: 1000, Hard: 1000}
	snap := Snapshot{ElapsedMS: 950, MoveOverheadMS: 60, PreviousScoreCP: math.NaN()}
	if !l.HardLimitReached(snap) {
		t.Fatal("elapsed + overhead should have crossed the hard limit")
	}
}

func TestShapeFallingEvalWidensBudgetWhenScoreDrops(t *testing.T) {
	snap := Snapshot{PreviousScoreCP: 80, BestMoveScoreCP: 10, TotalIterations: 1}
	shape := Shape(snap)
	if shape.FallingEval <= 1.0 {
		t.Fatalf("a falling eval should widen the soft budget, got factor %v", shape.FallingEval)
	}
}

func TestShapeInstabilityNeverShrinksBelowOne(t *testing.T) {
	snap := Snapshot{PreviousScoreCP: math.NaN(), BestMoveChanges: 0, TotalIterations: 1}
	shape := Shape(snap)
	if shape.BestMoveInstability != 1.0 {
		t.Fatalf("zero best-move changes should leave instability at 1.0, got %v", shape.BestMoveInstability)
	}
}

func TestShapeVisitDistributionWidensOnCloseSecondChild(t *testing.T) {
	snap := Snapshot{PreviousScoreCP: math.NaN(), TotalIterations: 1000, BestActionVisits: 500, SecondChildVisits: 490}
	close := Shape(snap)

	snap.SecondChildVisits = 5
	lopsided := Shape(snap)

	if close.VisitDistribution <= lopsided.VisitDistribution {
		t.Fatalf("a close second child should widen the budget more than a lopsided one: close=%v lopsided=%v",
			close.VisitDistribution, lopsided.VisitDistribution)
	}
}

func TestSoftLimitReachedRespondsToShaping(t *testing.T) {
	l := Limits{Soft: 1000, Hard: 5000}

	stable := Snapshot{ElapsedMS: 1100, PreviousScoreCP: math.NaN(), TotalIterations: 1000, BestActionVisits: 900, SecondChildVisits: 5}
	if !l.SoftLimitReached(stable) {
		t.Fatal("a confident, stable search should have crossed the unshaped soft limit by 1100ms")
	}

	unstable := Snapshot{ElapsedMS: 1100, PreviousScoreCP: 200, BestMoveScoreCP: -200, BestMoveChanges: 5, TotalIterations: 1000, BestActionVisits: 500, SecondChildVisits: 480}
	if l.SoftLimitReached(unstable) {
		t.Fatal("a falling eval with an unsettled root should extend past the unshaped soft limit")
	}
}
