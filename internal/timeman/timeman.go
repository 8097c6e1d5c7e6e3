// Package timeman computes soft and hard search time limits from the UCI
// "go" parameters and live search telemetry, the way a classical
// alpha-beta engine's time manager does, adapted to MCTS signals (visit
// distribution, best-action effort) in place of iterative-deepening ones.
package timeman

import "math"

// HardCheckInterval and SoftCheckInterval are how often (in iterations) the
// search loop is expected to poll the two limits. Checking every iteration
// would make the atomic reads on Stats contend with worker threads for no
// benefit; 128/4096 is cheap enough to be invisible and frequent enough
// that a limit is never missed by a meaningful margin.
const (
	HardCheckInterval = 128
	SoftCheckInterval = 4096
)

// Limits holds the computed soft and hard ceilings, in milliseconds, for
// one search.
type Limits struct {
	Soft uint64
	Hard uint64

	// Infinite disables both limits (UCI "go infinite"); MoveTime, Depth,
	// and Iterations are separate, independently-enforced caps applied by
	// the caller.
	Infinite bool
}

// Calculate derives soft/hard limits from the clock state reported in a UCI
// "go" command. timeRemaining and increment are in milliseconds; movesToGo
// is 0 when not specified (sudden-death time control). gamePly is the
// number of half-moves played so far this game.
func Calculate(timeRemaining, increment int64, movesToGo int, gamePly int, infinite bool) Limits {
	if infinite {
		return Limits{Infinite: true}
	}
	if timeRemaining <= 0 {
		return Limits{}
	}

	if movesToGo > 0 {
		t := uint64(float64(timeRemaining+increment) / float64(movesToGo))
		return Limits{Soft: t, Hard: t}
	}

	const assumedMTG = 30

	timeLeft := math.Max(float64(timeRemaining+increment*(assumedMTG-1)-10*(2+assumedMTG)), 1)
	logTime := math.Log10(timeLeft / 1000.0)

	softConstant := math.Min(0.0048+0.00032*logTime, 0.0060)
	softScale := math.Min(0.0125+math.Sqrt(float64(gamePly)+2.5)*softConstant, 0.25*float64(timeRemaining)/timeLeft)

	hardConstant := math.Max(3.39+3.01*logTime, 2.93)
	hardScale := math.Min(hardConstant+float64(gamePly)/12.0, 4.00)

	bonus := 1.0
	if gamePly <= 10 {
		bonus = 1.0 + math.Log10(11.0-float64(gamePly))*0.5
	}

	softTime := uint64(softScale * bonus * timeLeft)
	hardTime := uint64(math.Min(hardScale*float64(softTime), float64(timeRemaining)*0.850))

	return Limits{Soft: softTime, Hard: hardTime}
}

// Snapshot is the live search telemetry the soft-limit shaping formula
// reads each time it's polled.
type Snapshot struct {
	ElapsedMS        uint64
	MoveOverheadMS    uint64
	BestMoveScoreCP   float64 // the current best move's score, in centipawns
	PreviousScoreCP   float64 // the score the last soft-limit poll observed; NaN before the first poll
	BestMoveChanges   int     // how many times the root's best move has flipped since the last poll
	BestActionVisits  uint64
	TotalIterations   uint64
	SecondChildVisits uint64 // 0 if there is no second child
}

// SoftShaping is the set of EMA-style multipliers applied to the base soft
// limit, returned individually so callers (and tests) can see which signal
// drove a decision to keep thinking.
type SoftShaping struct {
	FallingEval         float64
	BestMoveInstability float64
	BestActionEffort    float64
	VisitDistribution   float64
}

// Combined returns the product of all four shaping factors.
func (s SoftShaping) Combined() float64 {
	return s.FallingEval * s.BestMoveInstability * s.BestActionEffort * s.VisitDistribution
}

// Shape computes the soft-limit shaping factors from a telemetry snapshot.
func Shape(snap Snapshot) SoftShaping {
	fallingEval := 1.0
	if !math.IsNaN(snap.PreviousScoreCP) {
		evalDiff := snap.PreviousScoreCP - snap.BestMoveScoreCP
		fallingEval = clamp(1.0+evalDiff*0.05, 0.60, 1.80)
	}

	instability := clamp(1.0+math.Log1p(float64(snap.BestMoveChanges)*0.3), 1.0, 3.2)

	iters := snap.TotalIterations
	if iters == 0 {
		iters = 1
	}
	nodesEffort := float64(snap.BestActionVisits) / float64(iters)
	effort := clamp(2.5-math.Log1p((nodesEffort+0.3)*0.55)*4.0, 0.55, 1.50)

	// A second child within striking distance of the best one means the
	// root hasn't settled; widen the budget. A lopsided gap means the
	// search is confident and can stop early.
	gap := 1.0
	if snap.BestActionVisits > 0 {
		gap = float64(snap.SecondChildVisits) / float64(snap.BestActionVisits)
	}
	visitDistribution := clamp(1.0+gap*0.5, 0.85, 1.35)

	return SoftShaping{
		FallingEval:         fallingEval,
		BestMoveInstability: instability,
		BestActionEffort:    effort,
		VisitDistribution:   visitDistribution,
	}
}

// HardLimitReached reports whether the hard ceiling has been crossed.
func (l Limits) HardLimitReached(snap Snapshot) bool {
	if l.Infinite || l.Hard == 0 {
		return false
	}
	return snap.ElapsedMS+snap.MoveOverheadMS >= l.Hard
}

// SoftLimitReached reports whether the shaped soft ceiling has been
// crossed.
func (l Limits) SoftLimitReached(snap Snapshot) bool {
	if l.Infinite || l.Soft == 0 {
		return false
	}
	shaped := float64(l.Soft) * Shape(snap).Combined()
	return float64(snap.ElapsedMS+snap.MoveOverheadMS) >= shaped
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
