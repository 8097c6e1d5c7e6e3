package engine

import (
	"math"
	"sync"
	"time"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/contempt"
	"github.com/kestrelchess/kestrel/internal/timeman"
)

func scoreToCP(win, draw float64) int {
	return contempt.CentipawnScore(win, draw)
}

// pollState tracks the mutable telemetry the soft-limit shaping formula
// needs between polls (best-move identity, previous score), guarded by a
// mutex since every search worker polls it independently.
type pollState struct {
	mu              sync.Mutex
	previousBest    board.Move
	previousScoreCP float64
	bestMoveChanges int
}

func newPollState() *pollState {
	return &pollState{previousScoreCP: math.NaN()}
}

// computeTimeLimits derives the soft/hard ms ceilings for this search from
// its limits, preferring a fixed MoveTime or Infinite over clock-derived
// timing.
func (e *Engine) computeTimeLimits(limits SearchLimits) timeman.Limits {
	if limits.Infinite {
		return timeman.Limits{Infinite: true}
	}
	if limits.MoveTime > 0 {
		ms := uint64(limits.MoveTime.Milliseconds())
		return timeman.Limits{Soft: ms, Hard: ms}
	}
	if limits.WTime == 0 && limits.BTime == 0 {
		return timeman.Limits{}
	}
	return timeman.Calculate(
		int64(limits.WTime.Milliseconds()),
		int64(limits.WInc.Milliseconds()),
		limits.MovesToGo,
		limits.GamePly,
		false,
	)
}

// hardLimitReached reports whether the search must stop immediately:
// elapsed wall time past the hard ceiling, or the node/depth caps from the
// UCI "go" command.
func (e *Engine) hardLimitReached(limits SearchLimits, tlimits timeman.Limits, startTime time.Time) bool {
	if limits.Nodes > 0 && e.tree.RootVisits() >= limits.Nodes {
		return true
	}
	snap := timeman.Snapshot{
		ElapsedMS:     uint64(time.Since(startTime).Milliseconds()),
		MoveOverheadMS: uint64(e.moveOverhead.Milliseconds()),
	}
	return tlimits.HardLimitReached(snap)
}

// softLimitReached reports whether the search has done enough work that it
// may stop even though the hard ceiling hasn't been hit, shaped by how
// settled the root's best move currently looks.
func (e *Engine) softLimitReached(limits SearchLimits, tlimits timeman.Limits, startTime time.Time, totalIterations uint64, poll *pollState) bool {
	if limits.Infinite || limits.MoveTime > 0 {
		return false
	}

	best := e.tree.BestEdge()
	if best == nil {
		return false
	}
	win, draw, _ := e.tree.RootWDL()
	scoreCP := float64(scoreToCP(win, draw))

	poll.mu.Lock()
	if best.Move != poll.previousBest {
		if poll.previousBest != board.NoMove {
			poll.bestMoveChanges++
		}
		poll.previousBest = best.Move
	}
	changes := poll.bestMoveChanges
	prevScore := poll.previousScoreCP
	poll.previousScoreCP = scoreCP
	poll.mu.Unlock()

	snap := timeman.Snapshot{
		ElapsedMS:         uint64(time.Since(startTime).Milliseconds()),
		MoveOverheadMS:    uint64(e.moveOverhead.Milliseconds()),
		BestMoveScoreCP:   scoreCP,
		PreviousScoreCP:   prevScore,
		BestMoveChanges:   changes,
		BestActionVisits:  best.Visits(),
		TotalIterations:   totalIterations,
		SecondChildVisits: e.tree.SecondBestVisits(),
	}
	return tlimits.SoftLimitReached(snap)
}
