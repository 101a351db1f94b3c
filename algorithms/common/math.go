package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// WeightedMean calculates Σ(w·x)/Σw using gonum. Returns 0 for empty input.
// weights must be nil or the same length as data.
func WeightedMean(data, weights []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, weights)
}

// LinearWeights returns the ramp 1, 2, ..., n used for recency weighting.
func LinearWeights(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	weights := make([]float64, n)
	floats.AddConst(1, weights)
	floats.CumSum(weights, weights)
	return weights
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// IsFinitePositive reports whether v is usable as a frequency or period
func IsFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
