package engine

import "github.com/kestrelchess/kestrel/internal/mcts"

// Option describes one UCI-declared engine option, enough to print its
// "option name ... type ..." announcement and validate a "setoption" value
// against it.
type Option struct {
	Name    string
	Type    string // "spin", "check", "string", "button"
	Default string
	Min     int
	Max     int
}

// Options is the full UCI option table this engine declares, in
// announcement order.
var Options = []Option{
	{Name: "Hash", Type: "spin", Default: "32", Min: 1, Max: 524288},
	{Name: "Threads", Type: "spin", Default: "1", Min: 1, Max: 1024},
	{Name: "EvalFile", Type: "string", Default: "<empty>"},
	{Name: "EvalFilePolicy", Type: "string", Default: "<empty>"},
	{Name: "SyzygyPath", Type: "string", Default: "<empty>"},
	{Name: "SyzygyProbeDepth", Type: "spin", Default: "1", Min: 1, Max: 100},
	{Name: "Contempt", Type: "spin", Default: "0", Min: -100, Max: 100},
	{Name: "CPuct", Type: "spin", Default: "160", Min: 10, Max: 1000}, // x100 fixed point
	{Name: "MoveOverhead", Type: "spin", Default: "25", Min: 0, Max: 2000},
}

// SetThreads changes the worker pool size for subsequent searches.
func SetThreads(n int) {
	if n > 0 {
		NumWorkers = n
	}
}

// SetCpuct changes the PUCT exploration constant, given as the UCI spin
// value (hundredths, so 160 means 1.60).
func SetCpuct(hundredths int) {
	if hundredths > 0 {
		mcts.Cpuct = float64(hundredths) / 100.0
	}
}
