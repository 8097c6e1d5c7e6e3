package contempt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRescaleNoopAtZeroContempt(t *testing.T) {
	win, draw := Rescale(0.55, 0.3, 0)
	assert.Equal(t, 0.55, win)
	assert.Equal(t, 0.3, draw)
}

func TestRescalePositiveContemptReducesDraws(t *testing.T) {
	win, draw := 0.4, 0.4
	_, newDraw := Rescale(win, draw, 100)
	assert.Less(t, newDraw, draw, "positive contempt should reduce draw chance")
}

func TestRescaleSymmetricAroundZeroContempt(t *testing.T) {
	win, draw := 0.4, 0.3
	wPos, _ := Rescale(win, draw, 80)
	wNeg, _ := Rescale(win, draw, -80)
	mid := (wPos + wNeg) / 2
	assert.InDelta(t, win, mid, 0.05, "opposite contempt signs should roughly cancel around the original win chance")
}

func TestRescaleStaysNormalized(t *testing.T) {
	win, draw := Rescale(0.6, 0.25, 150)
	loss := 1 - win - draw
	require.GreaterOrEqual(t, win, 0.0)
	require.GreaterOrEqual(t, draw, 0.0)
	require.GreaterOrEqual(t, loss, 0.0)
}

func TestRescaleSkipsExtremePositions(t *testing.T) {
	win, draw := Rescale(0.99999, 0.000005, 100)
	assert.Equal(t, 0.99999, win)
	assert.Equal(t, 0.000005, draw)
}

func TestCentipawnScoreSignMatchesAdvantage(t *testing.T) {
	assert.Greater(t, CentipawnScore(0.7, 0.2), 0)
	assert.Less(t, CentipawnScore(0.2, 0.2), 0)
}

func TestCentipawnScoreEqualChancesIsZero(t *testing.T) {
	assert.Equal(t, 0, CentipawnScore(0.2, 0.6))
}
