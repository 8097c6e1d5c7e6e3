// Package contempt implements the logistic WDL reparameterization used both
// to bias search toward draws or decisive results against a modeled
// opponent, and to convert a win/draw/loss triple into a centipawn-like
// score for reporting and for the butterfly history's bonus input.
package contempt

import "math"

const (
	// shiftClamp bounds how far a single contempt setting may move the
	// logistic advantage, so an extreme rating can't collapse the
	// distribution onto a single outcome.
	shiftClamp = 0.8
	epsilon    = 0.0001

	// power50MR and cap50MR shape the half-move-clock term of the draw
	// pull: (0.01*halfMoveClock)^power50MR, capped.
	power50MR = 2.0
	cap50MR   = 0.15

	// depthScalingPower, depthScaling and depthScalingCap shape the
	// depth term of the same draw pull: depth^depthScalingPower *
	// depthScaling, capped.
	depthScalingPower = 1.2
	depthScaling      = 0.003
	depthScalingCap   = 0.1
)

// Rescale biases (win, draw) by a per-opponent contempt rating expressed in
// the engine's normal option units (centipawn-like, typically -100..100).
// A positive contempt favors decisive results over draws; loss is implied
// as 1-win-draw both before and after.
//
// The triple is left untouched when it is too one-sided for the logistic
// reparameterization to be numerically stable (win/loss within epsilon of
// 0 or 1), since ln(1/x - 1) blows up there regardless of contempt.
func Rescale(win, draw float64, contempt int) (newWin, newDraw float64) {
	if contempt == 0 {
		return win, draw
	}

	loss := 1 - win - draw
	if win < epsilon || loss < epsilon || win > 1-epsilon || loss > 1-epsilon {
		return win, draw
	}

	a := math.Log(1/loss - 1)
	b := math.Log(1/win - 1)
	denom := a + b
	if math.Abs(denom) < 1e-6 {
		return win, draw
	}

	uncertainty := 2 / denom
	advantage := (a - b) / denom

	shift := uncertainty * uncertainty * float64(contempt) * math.Ln10 / (400.0 * 16.0)
	shift = clamp(shift, -shiftClamp, shiftClamp)

	newAdvantage := advantage + shift
	newW := logistic((-1 + newAdvantage) / uncertainty)
	newL := logistic((-1 - newAdvantage) / uncertainty)
	newD := clamp(1-newW-newL, 0, 1)

	return newW, newD
}

// DrawPull attenuates a win/draw/loss triple toward a draw as the 50-move
// rule clock and the search depth at which it was produced both grow,
// reflecting that deep, clock-heavy nodes carry more drawish uncertainty
// than the raw value-network output suggests. halfMoveClock is the
// position's half-move counter toward the 50-move rule; depth is the
// iteration's descent depth at the evaluated leaf.
func DrawPull(win, draw float64, halfMoveClock int, depth float64) (newWin, newDraw float64) {
	loss := 1 - win - draw

	s := math.Min(math.Pow(0.01*float64(halfMoveClock), power50MR), cap50MR) +
		math.Min(math.Pow(depth, depthScalingPower)*depthScaling, depthScalingCap)

	winDelta := win * s
	lossDelta := loss * s

	newWin = win - winDelta
	newDraw = draw + winDelta + lossDelta
	return newWin, newDraw
}

// CentipawnScore converts a win/draw/loss triple to an approximate
// centipawn score using the same logistic scale UCI "cp" reporting and the
// butterfly history bonus both key off.
func CentipawnScore(win, draw float64) int {
	loss := 1 - win - draw
	wl := win - loss

	tan := math.Tan(1.342 * wl)
	tanCP := 105.20*tan + 32.94*tan*tan*tan

	if math.Min(win, loss) > 0.002 {
		a := math.Log(1/clamp(loss, 0.0001, 0.9999) - 1)
		b := math.Log(1/clamp(win, 0.0001, 0.9999) - 1)
		denom := a + b

		if math.Abs(denom) > 0.01 {
			mu := (a - b) / denom
			muCP := mu * 100.0

			if math.Abs(muCP) > math.Abs(tanCP) || math.Abs(muCP) < 100.0 {
				return int(muCP)
			}
		}
	}

	return int(clamp(tanCP, -30000, 30000))
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
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
