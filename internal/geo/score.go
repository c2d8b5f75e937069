package geo

import "math"

// Scoring holds the parameters of the exponential decay score.
type Scoring struct {
	// ThresholdKm is the radius inside which a guess earns MaxScore.
	ThresholdKm float64
	MaxScore    int
	// DecayRate is applied per kilometer beyond ThresholdKm.
	DecayRate float64
}

// DefaultScoring is full credit within 10 km, 500 points max, decaying at
// 0.035 per km.
var DefaultScoring = Scoring{
	ThresholdKm: 10,
	MaxScore:    500,
	DecayRate:   0.035,
}

// Score converts a distance error into points in [0, MaxScore].
//
// Within ThresholdKm the full MaxScore is awarded. Beyond it the score is
// MaxScore * exp(-DecayRate * (distanceKm - ThresholdKm)), rounded half away
// from zero (math.Round) and floored at 0.
func (s Scoring) Score(distanceKm float64) int {
	if distanceKm <= s.ThresholdKm {
		return s.MaxScore
	}

	points := math.Round(float64(s.MaxScore) * math.Exp(-s.DecayRate*(distanceKm-s.ThresholdKm)))
	if points <= 0 || math.IsNaN(points) {
		return 0
	}
	return min(int(points), s.MaxScore)
}

// Score scores distanceKm with DefaultScoring.
func Score(distanceKm float64) int {
	return DefaultScoring.Score(distanceKm)
}
