// Package hashtable implements the search's value cache: a flat,
// open-addressed table mapping Zobrist keys to a cached win/draw estimate so
// repeated visits to the same Ongoing leaf don't re-run the value network.
// It is not a persistent store and carries none of the depth/bound/age
// machinery a classical alpha-beta transposition table needs, since MCTS
// tree nodes already own their own visit statistics.
package hashtable

import (
	"math/bits"
	"sync/atomic"
)

// ScoreScale is the fixed-point scale WDL probabilities are stored at.
const ScoreScale = 65536

// Table is a flat array indexed by the multiplicative reduction of the
// Zobrist key onto the table size. Each slot holds a 16-bit key fragment
// (a cheap probe filter, not a collision-proof guarantee) and an atomically
// updated win/draw pair; loss is implied as 1-win-draw. Entries are never
// chained: a new store simply overwrites whatever was there.
type Table struct {
	slots []slot
	size  uint64
}

type slot struct {
	key   atomic.Uint32 // low 16 bits of the Zobrist key with bit 16 set as an occupied marker, 0 = empty
	score atomic.Uint64 // win(32) << 32 | draw(32), both scaled by ScoreScale
}

// New creates a table sized to hold roughly sizeMB megabytes of entries.
func New(sizeMB int) *Table {
	const entrySize = 16 // two uint32/uint64 atomics per slot, padding included
	count := uint64(sizeMB) * 1024 * 1024 / entrySize
	if count == 0 {
		count = 1
	}
	return &Table{slots: make([]slot, count), size: count}
}

// index reduces a 64-bit hash onto [0, size) via a 128-bit multiply instead
// of a modulo, so the table need not be a power of two.
func (t *Table) index(hash uint64) uint64 {
	hi, _ := bits.Mul64(hash, t.size)
	return hi
}

// Probe returns the cached win/draw estimate for hash, if present.
func (t *Table) Probe(hash uint64) (win, draw float64, found bool) {
	s := &t.slots[t.index(hash)]
	key := uint32(uint16(hash)) | 1<<16
	if s.key.Load() != key {
		return 0, 0, false
	}
	packed := s.score.Load()
	return unpackWin(packed), unpackDraw(packed), true
}

// Store records a win/draw estimate for hash, unconditionally overwriting
// whatever entry currently occupies the slot.
func (t *Table) Store(hash uint64, win, draw float64) {
	s := &t.slots[t.index(hash)]
	s.score.Store(pack(win, draw))
	s.key.Store(uint32(uint16(hash)) | 1<<16)
}

// Clear resets every slot. Called on a new-game UCI command; this table
// never survives across games.
func (t *Table) Clear() {
	for i := range t.slots {
		t.slots[i].key.Store(0)
		t.slots[i].score.Store(0)
	}
}

// Size returns the number of slots in the table.
func (t *Table) Size() uint64 {
	return t.size
}

func pack(win, draw float64) uint64 {
	w := uint64(win * ScoreScale)
	d := uint64(draw * ScoreScale)
	return w<<32 | d
}

func unpackWin(packed uint64) float64 {
	return float64(packed>>32) / ScoreScale
}

func unpackDraw(packed uint64) float64 {
	return float64(uint32(packed)) / ScoreScale
}
