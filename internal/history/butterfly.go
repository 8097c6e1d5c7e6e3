// Package history implements butterfly move history: a shared, lock-free
// table of (side, from, to) reinforcement counters that nudge the policy
// prior toward moves that have recently scored well, independent of which
// position they were played from.
package history

import (
	"math"
	"sync/atomic"

	"github.com/kestrelchess/kestrel/internal/board"
)

// DefaultReductionFactor and DefaultBonusScale are the engine's built-in
// defaults for the two UCI-tunable constants the bonus formula depends on.
const (
	DefaultReductionFactor = 9640
	DefaultBonusScale      = 16850.0
)

// Table is the butterfly history: one signed 16-bit counter per
// (side, from, to) triple, 2 * 64 * 64 = 8192 entries in total.
type Table struct {
	entries [2 * 64 * 64]atomic.Int32 // stored as int16 range, widened for CAS convenience
}

// New creates an empty butterfly history.
func New() *Table {
	return &Table{}
}

// Clear resets every entry to zero. Called on a new-game UCI command.
func (t *Table) Clear() {
	for i := range t.entries {
		t.entries[i].Store(0)
	}
}

func index(side board.Color, from, to board.Square) int {
	return int(side)*4096 + int(from)*64 + int(to)
}

// Bonus returns the current entry's contribution to a move's policy prior,
// scaled down by bonusScale (pass DefaultBonusScale for the engine default).
func (t *Table) Bonus(side board.Color, from, to board.Square, bonusScale float64) float64 {
	return float64(t.entries[index(side, from, to)].Load()) / bonusScale
}

// Update applies a reinforcement step to the (side, from, to) entry after a
// non-terminal edge visit scored centipawns cp. The bonus shrinks as the
// entry saturates, via reduction = current*|bonus|/reductionFactor, so a
// move that is already strongly favored stops accumulating as quickly.
func (t *Table) Update(side board.Color, from, to board.Square, cp int, reductionFactor int) {
	entry := &t.entries[index(side, from, to)]

	for {
		current := entry.Load()
		delta := scaleBonus(int32(current), int32(cp), int32(reductionFactor))
		next := saturatingAddInt16(int32(current), delta)
		if entry.CompareAndSwap(current, next) {
			return
		}
	}
}

func scaleBonus(score, bonus, reductionFactor int32) int32 {
	bonus = clampInt32(bonus, math.MinInt16, math.MaxInt16)
	reduction := score * absInt32(bonus) / reductionFactor
	adjusted := bonus - reduction
	return clampInt32(adjusted, math.MinInt16, math.MaxInt16)
}

func saturatingAddInt16(a, b int32) int32 {
	return clampInt32(a+b, math.MinInt16, math.MaxInt16)
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
