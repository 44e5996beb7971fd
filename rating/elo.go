// Package rating implements the platform's skill-rating model: the standard
// logistic expected-score formula with a deterministic variable K-factor.
package rating

import "math"

// Outcome of a match from the perspective of the two sides passed in.
type Outcome int

const (
	AWins Outcome = iota
	BWins
	Draw
)

// Config fixes the K-factor policy. The policy is deterministic: base K for
// everyone, a reduced K once a participant has enough recorded matches, and a
// further reduced K at high ratings. The smallest applicable K wins, and each
// side is updated with its own K.
type Config struct {
	BaseK int
	// ExperiencedK applies once MatchesPlayed >= ExperiencedMatches.
	ExperiencedK       int
	ExperiencedMatches int
	// HighRatedK applies at Rating >= HighRatedThreshold.
	HighRatedK         int
	HighRatedThreshold int
	// ForfeitPenalty is the fixed rating loss for a no-show, capped so the
	// rating never drops below Floor.
	ForfeitPenalty int
	Floor          int
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{
		BaseK:              32,
		ExperiencedK:       24,
		ExperiencedMatches: 30,
		HighRatedK:         16,
		HighRatedThreshold: 2400,
		ForfeitPenalty:     8,
		Floor:              100,
	}
}

// ExpectedScore returns the logistic win expectancy of the first rating
// against the second.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// KFor returns the K-factor for one side under this policy.
func (c Config) KFor(rating, matchesPlayed int) int {
	k := c.BaseK
	if matchesPlayed >= c.ExperiencedMatches && c.ExperiencedK < k {
		k = c.ExperiencedK
	}
	if rating >= c.HighRatedThreshold && c.HighRatedK < k {
		k = c.HighRatedK
	}
	return k
}

// Deltas computes the rating adjustments for both sides without applying
// them. Each delta is rounded to the nearest integer, half up.
func (c Config) Deltas(ratingA, matchesA, ratingB, matchesB int, outcome Outcome) (int, int) {
	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := 1.0 - expectedA

	var actualA, actualB float64
	switch outcome {
	case AWins:
		actualA, actualB = 1, 0
	case BWins:
		actualA, actualB = 0, 1
	case Draw:
		actualA, actualB = 0.5, 0.5
	}

	kA := float64(c.KFor(ratingA, matchesA))
	kB := float64(c.KFor(ratingB, matchesB))

	return roundHalfUp(kA * (actualA - expectedA)), roundHalfUp(kB * (actualB - expectedB))
}

// Update returns the post-match ratings for both sides. MatchesPlayed counts
// are taken as zero, so only the high-rating K reduction can apply; callers
// tracking match history should use UpdateWithExperience.
func (c Config) Update(ratingA, ratingB int, outcome Outcome) (int, int) {
	return c.UpdateWithExperience(ratingA, 0, ratingB, 0, outcome)
}

// UpdateWithExperience returns the post-match ratings for both sides, taking
// prior match counts into account for the K-factor policy.
func (c Config) UpdateWithExperience(ratingA, matchesA, ratingB, matchesB int, outcome Outcome) (int, int) {
	dA, dB := c.Deltas(ratingA, matchesA, ratingB, matchesB, outcome)
	return ratingA + dA, ratingB + dB
}

// ForfeitDelta returns the (non-positive) rating adjustment applied to a
// forfeiting participant. The opponent's rating is not adjusted on a forfeit.
func (c Config) ForfeitDelta(rating int) int {
	d := -c.ForfeitPenalty
	if rating+d < c.Floor {
		d = c.Floor - rating
		if d > 0 {
			d = 0
		}
	}
	return d
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
