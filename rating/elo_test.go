package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1500, 1500), 1e-9)
	// 400 points of difference is a 10:1 expectancy.
	assert.InDelta(t, 10.0/11.0, ExpectedScore(1900, 1500), 1e-9)
	assert.InDelta(t, 1.0/11.0, ExpectedScore(1500, 1900), 1e-9)
}

func TestUpdateEqualRatings(t *testing.T) {
	cfg := DefaultConfig()

	newA, newB := cfg.Update(1500, 1500, AWins)
	assert.Equal(t, 1516, newA)
	assert.Equal(t, 1484, newB)

	newA, newB = cfg.Update(1500, 1500, Draw)
	assert.Equal(t, 1500, newA)
	assert.Equal(t, 1500, newB)
}

func TestUpdateUpset(t *testing.T) {
	cfg := DefaultConfig()

	// Underdog win moves more than an expected win.
	lowWin, highLose := cfg.Update(1300, 1600, AWins)
	upsetGain := lowWin - 1300
	assert.Positive(t, upsetGain)
	assert.Equal(t, -(upsetGain), highLose-1600)

	highWin, lowLose := cfg.Update(1600, 1300, AWins)
	favGain := highWin - 1600
	assert.Positive(t, favGain)
	assert.Less(t, favGain, upsetGain)
	assert.Equal(t, -(favGain), lowLose-1300)
}

func TestDeltasSymmetric(t *testing.T) {
	cfg := DefaultConfig()

	for _, pair := range [][2]int{{1600, 1300}, {1500, 1500}, {1234, 1987}, {1200, 1201}} {
		dA, dB := cfg.Deltas(pair[0], 0, pair[1], 0, AWins)
		dB2, dA2 := cfg.Deltas(pair[1], 0, pair[0], 0, BWins)
		assert.Equal(t, dA, dA2, "winner delta must not depend on argument order")
		assert.Equal(t, dB, dB2, "loser delta must not depend on argument order")
		assert.Equal(t, dA, -dB, "same-K updates are zero sum")
	}
}

func TestKForPolicy(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 32, cfg.KFor(1500, 0))
	assert.Equal(t, 32, cfg.KFor(1500, 29))
	assert.Equal(t, 24, cfg.KFor(1500, 30))
	assert.Equal(t, 16, cfg.KFor(2400, 0))
	// Smallest applicable K wins.
	assert.Equal(t, 16, cfg.KFor(2450, 500))
}

func TestUpdateWithExperienceUsesPerSideK(t *testing.T) {
	cfg := DefaultConfig()

	// Veteran (K=24) beats a newcomer (K=32) at equal ratings: the veteran
	// gains 12 while the newcomer drops 16.
	newA, newB := cfg.UpdateWithExperience(1500, 100, 1500, 0, AWins)
	assert.Equal(t, 1512, newA)
	assert.Equal(t, 1484, newB)
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3, roundHalfUp(2.5))
	assert.Equal(t, 2, roundHalfUp(2.4))
	assert.Equal(t, -2, roundHalfUp(-2.5))
	assert.Equal(t, -3, roundHalfUp(-2.6))
}

func TestForfeitDelta(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, -8, cfg.ForfeitDelta(1200))
	// Capped at the rating floor.
	assert.Equal(t, -3, cfg.ForfeitDelta(103))
	assert.Equal(t, 0, cfg.ForfeitDelta(100))
	assert.Equal(t, 0, cfg.ForfeitDelta(90))
}
