// Package floodrisk scores how likely a road segment is to be flooded from
// its elevation, the current rainfall and its distance to the nearest water body.
package floodrisk

import (
	"lintang/floodnav/pkg/datastructure"
)

// MaxScore skor maksimum (50 elevation + 40 rainfall + 30 water).
const MaxScore = 120

type Thresholds struct {
	Low    int `yaml:"low" validate:"gte=0"`
	Medium int `yaml:"medium" validate:"gtfield=Low"`
	High   int `yaml:"high" validate:"gtfield=Medium"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Low: 20, Medium: 40, High: 70}
}

type Result struct {
	Score   int
	Flooded bool
	Level   datastructure.RiskLevel
}

type Scorer struct {
	thresholds Thresholds
}

func NewScorer(t Thresholds) *Scorer {
	return &Scorer{thresholds: t}
}

// Thresholds threshold yang dipakai scorer. Flooded berarti score >= Medium.
func (s *Scorer) Thresholds() Thresholds {
	return s.thresholds
}

// Score total, tidak pernah error. NaN input tidak menambah skor.
func (s *Scorer) Score(elevationM, rainfallMmHr, distanceToWaterM float64) Result {
	score := elevationScore(elevationM) + rainfallScore(rainfallMmHr) + waterProximityScore(distanceToWaterM)
	return s.Classify(score)
}

// Classify memetakan skor total ke level dan flag flooded.
func (s *Scorer) Classify(score int) Result {
	res := Result{Score: score, Level: datastructure.RiskNone}
	switch {
	case score >= s.thresholds.High:
		res.Level = datastructure.RiskHigh
	case score >= s.thresholds.Medium:
		res.Level = datastructure.RiskMedium
	case score >= s.thresholds.Low:
		res.Level = datastructure.RiskLow
	}
	res.Flooded = score >= s.thresholds.Medium
	return res
}

// Score pakai threshold default.
func Score(elevationM, rainfallMmHr, distanceToWaterM float64) Result {
	return NewScorer(DefaultThresholds()).Score(elevationM, rainfallMmHr, distanceToWaterM)
}

func elevationScore(elevationM float64) int {
	switch {
	case elevationM < 5:
		return 50
	case elevationM < 10:
		return 30
	case elevationM < 20:
		return 10
	default:
		return 0
	}
}

func rainfallScore(rainfallMmHr float64) int {
	switch {
	case rainfallMmHr > 50:
		return 40
	case rainfallMmHr > 20:
		return 20
	case rainfallMmHr > 5:
		return 5
	default:
		return 0
	}
}

func waterProximityScore(distanceM float64) int {
	switch {
	case distanceM < 100:
		return 30
	case distanceM < 500:
		return 15
	case distanceM < 1000:
		return 5
	default:
		return 0
	}
}
