package temporal

import (
	"errors"

	"github.com/RyanBlaney/sonido-melody/algorithms/common"
)

// DefaultHistorySize is how many recent estimates PitchHistory keeps
const DefaultHistorySize = 10

// ErrEmptyHistory is returned by Average before the first Push
var ErrEmptyHistory = errors.New("pitch history is empty")

// PitchHistory keeps the most recent voiced frequency estimates and smooths them with a
// linear recency weighting: the i-th oldest value (0-based) has weight i+1.
// It is not safe for concurrent use.
type PitchHistory struct {
	values *common.Ring[float64]
}

// NewPitchHistory creates a history holding up to capacity estimates.
// A capacity below 1 uses DefaultHistorySize.
func NewPitchHistory(capacity int) *PitchHistory {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	return &PitchHistory{values: common.NewRing[float64](capacity)}
}

// Push appends a voiced estimate, evicting the oldest once full.
// Non-positive and non-finite values are rejected and reported as false.
func (ph *PitchHistory) Push(freq float64) bool {
	if !common.IsFinitePositive(freq) {
		return false
	}
	ph.values.Push(freq)
	return true
}

// Average returns the recency-weighted mean Σ(v_i·(i+1)) / Σ(i+1)
func (ph *PitchHistory) Average() (float64, error) {
	if ph.values.IsEmpty() {
		return 0, ErrEmptyHistory
	}
	values := ph.values.Values()
	return common.WeightedMean(values, common.LinearWeights(len(values))), nil
}

// Len returns the number of stored estimates
func (ph *PitchHistory) Len() int {
	return ph.values.Len()
}

// Capacity returns the maximum number of stored estimates
func (ph *PitchHistory) Capacity() int {
	return ph.values.Cap()
}

// Values returns a copy of the stored estimates, oldest first
func (ph *PitchHistory) Values() []float64 {
	return ph.values.Values()
}

// Reset drops every stored estimate
func (ph *PitchHistory) Reset() {
	ph.values.Clear()
}
