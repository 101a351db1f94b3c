package tonal

import (
	"math"

	"github.com/RyanBlaney/sonido-melody/algorithms/common"
)

const (
	// DefaultSilenceThreshold is the RMS level below which a frame is treated as unvoiced
	DefaultSilenceThreshold = 0.01

	// DefaultCorrelationThreshold is the correlation a lag must exceed to open a peak region
	DefaultCorrelationThreshold = 0.9

	// DefaultFallbackThreshold is the minimum correlation accepted when no peak region was found
	DefaultFallbackThreshold = 0.01

	// DefaultInterpolationScale scales the neighbour-difference shift applied to the best lag.
	// It is an empirical tuning value, not a derived interpolation identity.
	DefaultInterpolationScale = 8.0

	// minFrameSize is the smallest frame that leaves a lag on both sides of a peak
	minFrameSize = 4
)

// PitchEstimatorParams contains parameters for pitch estimation
type PitchEstimatorParams struct {
	SilenceThreshold     float64 `json:"silence_threshold" yaml:"silence_threshold"`
	CorrelationThreshold float64 `json:"correlation_threshold" yaml:"correlation_threshold"`
	FallbackThreshold    float64 `json:"fallback_threshold" yaml:"fallback_threshold"`
	InterpolationScale   float64 `json:"interpolation_scale" yaml:"interpolation_scale"`
}

// DefaultPitchEstimatorParams returns the tuning the estimator ships with
func DefaultPitchEstimatorParams() PitchEstimatorParams {
	return PitchEstimatorParams{
		SilenceThreshold:     DefaultSilenceThreshold,
		CorrelationThreshold: DefaultCorrelationThreshold,
		FallbackThreshold:    DefaultFallbackThreshold,
		InterpolationScale:   DefaultInterpolationScale,
	}
}

// PitchEstimator estimates the fundamental frequency of a monophonic frame using a
// difference-based autocorrelation:
//
//	corr(L) = 1 - Σ|x[i] - x[i+L]| / M,  i in [0, M), M = N/2
//
// The scan locks onto the first rising region above CorrelationThreshold so that a
// harmonic further along the lag axis cannot win over the fundamental.
//
// PitchEstimator holds no per-frame state; a single value may be shared between goroutines.
type PitchEstimator struct {
	params PitchEstimatorParams
}

// NewPitchEstimator creates an estimator with default parameters
func NewPitchEstimator() *PitchEstimator {
	return NewPitchEstimatorWithParams(DefaultPitchEstimatorParams())
}

// NewPitchEstimatorWithParams creates an estimator with custom parameters.
// Zero or negative fields fall back to their defaults.
func NewPitchEstimatorWithParams(params PitchEstimatorParams) *PitchEstimator {
	defaults := DefaultPitchEstimatorParams()
	if params.SilenceThreshold <= 0 {
		params.SilenceThreshold = defaults.SilenceThreshold
	}
	if params.CorrelationThreshold <= 0 {
		params.CorrelationThreshold = defaults.CorrelationThreshold
	}
	if params.FallbackThreshold <= 0 {
		params.FallbackThreshold = defaults.FallbackThreshold
	}
	if params.InterpolationScale <= 0 {
		params.InterpolationScale = defaults.InterpolationScale
	}
	return &PitchEstimator{params: params}
}

// Params returns the effective parameters
func (pe *PitchEstimator) Params() PitchEstimatorParams {
	return pe.params
}

// Estimate returns the fundamental frequency of frame in Hz, or false when the frame is
// silent or has no usable periodicity. Odd-length frames lose their last sample.
func (pe *PitchEstimator) Estimate(frame []float64, sampleRate float64) (float64, bool) {
	if !common.IsFinitePositive(sampleRate) {
		return 0, false
	}

	frame = evenFrame(frame)
	if len(frame) < minFrameSize {
		return 0, false
	}

	if common.RMS(frame) < pe.params.SilenceThreshold {
		return 0, false
	}

	lag, ok := pe.findPeriod(frame)
	if !ok {
		return 0, false
	}

	frequency := sampleRate / lag
	if !common.IsFinitePositive(frequency) {
		return 0, false
	}
	return frequency, true
}

// Correlation returns corr(L) for every lag in [0, N/2) of the (even-truncated) frame
func (pe *PitchEstimator) Correlation(frame []float64) []float64 {
	frame = evenFrame(frame)
	maxLag := len(frame) / 2
	correlations := make([]float64, maxLag)
	for lag := range maxLag {
		correlations[lag] = correlationAt(frame, lag, maxLag)
	}
	return correlations
}

// findPeriod scans lags and returns the refined period in samples
func (pe *PitchEstimator) findPeriod(frame []float64) (float64, bool) {
	maxLag := len(frame) / 2
	correlations := make([]float64, maxLag)

	bestLag := -1
	bestCorrelation := 0.0
	inRegion := false

	// Highest rising lag seen anywhere, used when no region opens
	peakLag := -1
	peakCorrelation := 0.0

	// corr(0) is always 1, so the rising test can never pass at lag 0
	lastCorrelation := 1.0

	for lag := range maxLag {
		correlation := correlationAt(frame, lag, maxLag)
		correlations[lag] = correlation
		rising := correlation > lastCorrelation

		if correlation > pe.params.CorrelationThreshold && rising {
			inRegion = true
			if correlation > bestCorrelation {
				bestCorrelation = correlation
				bestLag = lag
			}
		} else if inRegion {
			return pe.refine(correlations, bestLag)
		}

		if rising && correlation > peakCorrelation {
			peakCorrelation = correlation
			peakLag = lag
		}
		lastCorrelation = correlation
	}

	// Region ran to the end of the scan: no right neighbour to interpolate with
	if inRegion && bestLag > 0 {
		return float64(bestLag), true
	}

	if peakLag > 0 && peakCorrelation > pe.params.FallbackThreshold {
		return float64(peakLag), true
	}

	return 0, false
}

// refine shifts bestLag using its neighbours. bestLag+1 is always computed because the
// region is closed by a later lag.
func (pe *PitchEstimator) refine(correlations []float64, bestLag int) (float64, bool) {
	if bestLag < 1 || bestLag+1 >= len(correlations) {
		return 0, false
	}

	shift := (correlations[bestLag+1] - correlations[bestLag-1]) / correlations[bestLag]
	lag := float64(bestLag) + pe.params.InterpolationScale*shift
	if !common.IsFinitePositive(lag) {
		return 0, false
	}
	return lag, true
}

// correlationAt computes 1 - mean absolute difference between frame and its lagged copy
func correlationAt(frame []float64, lag, window int) float64 {
	sum := 0.0
	for i := range window {
		sum += math.Abs(frame[i] - frame[i+lag])
	}
	return 1 - sum/float64(window)
}

// evenFrame drops the last sample of an odd-length frame so the half split is exact
func evenFrame(frame []float64) []float64 {
	if len(frame)%2 != 0 {
		return frame[:len(frame)-1]
	}
	return frame
}
