package spectral

// PowerSpectrum provides power spectral density computation
type PowerSpectrum struct {
	fft *FFT
}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{fft: NewFFT()}
}

// Compute computes power spectral density from magnitude spectrum
func (ps *PowerSpectrum) Compute(magnitudeSpectrum []float64) []float64 {
	if len(magnitudeSpectrum) == 0 {
		return []float64{}
	}

	power := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		power[i] = mag * mag
	}

	return power
}

// DominantFrequency returns the frequency of the strongest spectral peak in frame,
// refined by parabolic interpolation over the neighbouring bins. The DC bin is ignored.
// Returns false for frames too short to hold a peak or with no energy.
func (ps *PowerSpectrum) DominantFrequency(frame []float64, sampleRate float64) (float64, bool) {
	if len(frame) < 4 || sampleRate <= 0 {
		return 0, false
	}

	power := ps.Compute(ps.fft.Magnitude(frame))

	peakBin := 0
	peakPower := 0.0
	for k := 1; k < len(power); k++ {
		if power[k] > peakPower {
			peakPower = power[k]
			peakBin = k
		}
	}
	if peakBin == 0 {
		return 0, false
	}

	bin := float64(peakBin)
	if peakBin+1 < len(power) {
		left, centre, right := power[peakBin-1], power[peakBin], power[peakBin+1]
		denominator := left - 2*centre + right
		if denominator != 0 {
			shift := 0.5 * (left - right) / denominator

			// Limit shift estimation to plus/minus half a bin
			if shift < -0.5 {
				shift = -0.5
			} else if shift > 0.5 {
				shift = 0.5
			}
			bin += shift
		}
	}

	return BinFrequency(bin, len(frame), sampleRate), true
}

// DominantFrequency is a convenience wrapper around PowerSpectrum.DominantFrequency
func DominantFrequency(frame []float64, sampleRate float64) (float64, bool) {
	return NewPowerSpectrum().DominantFrequency(frame, sampleRate)
}
