package retrieval

import "math"

// relevanceThreshold is the similarity above which a source counts as
// strongly matching.
const relevanceThreshold = 0.5

// Confidence derives a single confidence value in [0,1] from retrieval
// similarity scores. It blends overall match quality (mean similarity,
// weight 0.7) with breadth of strongly matching evidence (count of
// scores above the threshold out of five, weight 0.3), capped at 1.
// This is a design choice, not a derived statistic. Empty retrieval
// yields exactly 0. The result is rounded to 2 decimals.
func Confidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	sum := 0.0
	relevant := 0
	for _, s := range scores {
		sum += s
		if s > relevanceThreshold {
			relevant++
		}
	}
	avg := sum / float64(len(scores))
	c := avg*0.7 + float64(relevant)/5.0*0.3
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return math.Round(c*100) / 100
}
