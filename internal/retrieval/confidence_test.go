package retrieval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func expected(scores []float64) float64 {
	sum := 0.0
	relevant := 0
	for _, s := range scores {
		sum += s
		if s > 0.5 {
			relevant++
		}
	}
	c := sum/float64(len(scores))*0.7 + float64(relevant)/5*0.3
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return math.Round(c*100) / 100
}

func TestConfidenceEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(nil))
	assert.Equal(t, 0.0, Confidence([]float64{}))
}

func TestConfidenceFormula(t *testing.T) {
	cases := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"two strong matches", []float64{0.8, 0.6}, 0.61},
		{"one weak match", []float64{0.3}, 0.21},
		{"threshold is strict", []float64{0.5}, 0.35},
		{"just above threshold", []float64{0.51}, 0.42},
		{"five perfect matches", []float64{1, 1, 1, 1, 1}, 1.0},
		{"rounding", []float64{0.333}, 0.23},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Confidence(tc.scores), 1e-9)
			assert.Equal(t, expected(tc.scores), Confidence(tc.scores))
		})
	}
}

func TestConfidenceCappedAtOne(t *testing.T) {
	// raw dot products can exceed 1; the cap holds
	got := Confidence([]float64{2.0, 1.8, 1.6, 1.4, 1.2})
	assert.Equal(t, 1.0, got)
}

func TestConfidenceClampedAtZero(t *testing.T) {
	// cosine similarity can be negative
	got := Confidence([]float64{-0.9, -0.8})
	assert.Equal(t, 0.0, got)
}

func TestConfidenceAlwaysInRange(t *testing.T) {
	seqs := [][]float64{
		{-1, -0.5, 0, 0.5, 1},
		{0.01}, {0.99}, {0.7, 0.7, 0.7, 0.7, 0.7, 0.7, 0.7},
		{1.5, -1.5},
	}
	for _, scores := range seqs {
		c := Confidence(scores)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
		assert.Equal(t, expected(scores), c)
	}
}
