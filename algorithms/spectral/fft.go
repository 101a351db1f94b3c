package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct {
	// No state needed for now
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes Fast Fourier Transform using mjibson/go-dsp
// Takes []float64 input and returns []complex128 output
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// Magnitude returns |X[k]| for the non-negative frequency bins (k <= N/2)
// of a Hann-windowed copy of x
func (f *FFT) Magnitude(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	windowed := make([]float64, len(x))
	copy(windowed, x)
	window.Apply(windowed, window.Hann)

	spectrum := f.Compute(windowed)
	bins := len(x)/2 + 1
	magnitude := make([]float64, bins)
	for k := range bins {
		magnitude[k] = cmplx.Abs(spectrum[k])
	}
	return magnitude
}

// BinFrequency converts a (possibly fractional) bin index to Hz
func BinFrequency(bin float64, frameSize int, sampleRate float64) float64 {
	if frameSize <= 0 {
		return 0
	}
	return bin * sampleRate / float64(frameSize)
}
