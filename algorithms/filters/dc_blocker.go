package filters

import (
	"math"
)

// DCBlocker is a one-pole high-pass that strips the DC offset some microphones
// add. A constant offset raises the RMS of a silent frame above the voicing gate.
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// State carries over between calls so a stream can be filtered frame by frame.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCBlocker struct {
	pole float64 // R, 0 < R < 1

	x1 float64
	y1 float64
}

// DefaultDCPole gives a cutoff of about 8 Hz at 44.1 kHz
const DefaultDCPole = 0.995

// NewDCBlocker creates a blocker with the -3 dB point at cutoffHz.
// Non-positive inputs fall back to DefaultDCPole.
func NewDCBlocker(sampleRate, cutoffHz float64) *DCBlocker {
	pole := DefaultDCPole
	if sampleRate > 0 && cutoffHz > 0 {
		// Small-angle approximation, valid for fc << fs/2
		pole = 1.0 - 2.0*math.Pi*cutoffHz/sampleRate
		pole = math.Max(0.001, math.Min(pole, 0.999))
	}
	return &DCBlocker{pole: pole}
}

// Pole returns R
func (dc *DCBlocker) Pole() float64 {
	return dc.pole
}

// Cutoff returns the approximate -3 dB frequency at sampleRate
func (dc *DCBlocker) Cutoff(sampleRate float64) float64 {
	return (1.0 - dc.pole) * sampleRate / (2.0 * math.Pi)
}

// Process filters one sample
func (dc *DCBlocker) Process(x float64) float64 {
	y := x - dc.x1 + dc.pole*dc.y1
	dc.x1 = x
	dc.y1 = y
	return y
}

// ProcessBuffer filters input into a new slice
func (dc *DCBlocker) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, x := range input {
		output[i] = dc.Process(x)
	}
	return output
}

// Reset clears the filter state; call it between unrelated streams
func (dc *DCBlocker) Reset() {
	dc.x1 = 0
	dc.y1 = 0
}
