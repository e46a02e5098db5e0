package crop

import "math"

type Band string

const (
	BandPoor      Band = "poor"
	BandModerate  Band = "moderate"
	BandExcellent Band = "excellent"
)

// SoilHealthReport is a display heuristic. It never feeds the classifier.
type SoilHealthReport struct {
	Score float64 `json:"score"`
	Band  Band    `json:"band"`
}

// SoilHealth scores nitrogen, phosphorus and pH on a percentage-like scale.
// The pH term peaks at neutral, so scores above 100 are possible.
func SoilHealth(n, p, ph float64) SoilHealthReport {
	score := (n/150 + p/150 + (14-math.Abs(7-ph))/7) / 3 * 100
	return SoilHealthReport{Score: score, Band: BandOf(score)}
}

// BandOf buckets a score. Both edges are exclusive: exactly 40 is poor and
// exactly 60 is moderate.
func BandOf(score float64) Band {
	switch {
	case score > 60:
		return BandExcellent
	case score > 40:
		return BandModerate
	}
	return BandPoor
}
