package tablebase

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/kestrelchess/kestrel/internal/board"
)

// SyzygyProber locates local Syzygy WDL/DTZ files and, when one is
// available, delegates the actual probe to an external decoder. The binary
// Syzygy format itself is outside this module's scope (see spec §1); this
// type only owns directory management and the Prober boundary so the rest
// of the engine never has to know whether tablebases are wired in.
type SyzygyProber struct {
	mu        sync.RWMutex
	path      string
	maxPieces int
	available bool
	external  Prober // real WDL/DTZ decoder, nil until SetExternalProber is called
}

// NewSyzygyProber creates a prober rooted at path. An empty path disables
// tablebase probing entirely.
func NewSyzygyProber(path string) *SyzygyProber {
	sp := &SyzygyProber{path: path, external: NoopProber{}}
	sp.refresh()
	return sp
}

// SetExternalProber wires in the actual tablebase decoder. Until this is
// called, Probe/ProbeRoot always report not-found even if local files exist.
func (sp *SyzygyProber) SetExternalProber(p Prober) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if p == nil {
		p = NoopProber{}
	}
	sp.external = p
}

// SetPath updates the tablebase directory and rescans it.
func (sp *SyzygyProber) SetPath(path string) {
	sp.mu.Lock()
	sp.path = path
	sp.mu.Unlock()
	sp.refresh()
}

func (sp *SyzygyProber) refresh() {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.path == "" {
		sp.available = false
		sp.maxPieces = 0
		return
	}
	if _, err := os.Stat(sp.path); err != nil {
		sp.available = false
		sp.maxPieces = 0
		return
	}

	sp.maxPieces = localMaxPieces(sp.path)
	sp.available = sp.maxPieces > 0
}

// localMaxPieces scans dir for KvK-style .rtbw files and returns the piece
// count of the largest material signature found, up to 7 (Syzygy's limit).
func localMaxPieces(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	max := 0
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) != ".rtbw" {
			continue
		}
		n := 0
		for _, c := range name {
			if c == 'K' || c == 'Q' || c == 'R' || c == 'B' || c == 'N' || c == 'P' {
				n++
			}
		}
		if n > max && n <= 7 {
			max = n
		}
	}
	return max
}

func (sp *SyzygyProber) Probe(pos *board.Position) ProbeResult {
	if CountPieces(pos) > sp.MaxPieces() {
		return ProbeResult{Found: false}
	}
	sp.mu.RLock()
	ext := sp.external
	sp.mu.RUnlock()
	return ext.Probe(pos)
}

func (sp *SyzygyProber) ProbeRoot(pos *board.Position) RootResult {
	if CountPieces(pos) > sp.MaxPieces() {
		return RootResult{Found: false}
	}
	sp.mu.RLock()
	ext := sp.external
	sp.mu.RUnlock()
	return ext.ProbeRoot(pos)
}

func (sp *SyzygyProber) MaxPieces() int {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.maxPieces
}

func (sp *SyzygyProber) Available() bool {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.available
}

// Path returns the current tablebase directory.
func (sp *SyzygyProber) Path() string {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.path
}

// materialSignature renders a position's material as a Syzygy-style file
// name stem (e.g. "KQPvKR"): White's material first, then Black's, each
// side's pieces listed from queen down to pawn after its king.
func materialSignature(pos *board.Position) string {
	sig := func(c board.Color) string {
		var b []byte
		for pt := board.Queen; pt >= board.Pawn; pt-- {
			count := pos.Pieces[c][pt].PopCount()
			for i := 0; i < count; i++ {
				b = append(b, pieceChar(pt))
			}
		}
		return string(b)
	}
	return "K" + sig(board.White) + "vK" + sig(board.Black)
}

func pieceChar(pt board.PieceType) byte {
	switch pt {
	case board.Queen:
		return 'Q'
	case board.Rook:
		return 'R'
	case board.Bishop:
		return 'B'
	case board.Knight:
		return 'N'
	case board.Pawn:
		return 'P'
	default:
		return '?'
	}
}
