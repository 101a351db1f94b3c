//go:build !portaudio

package capture

import "context"

// MicConfig selects the input device
type MicConfig struct {
	Device     string
	SampleRate float64
	FrameSize  int
}

// MicSource is unavailable without the portaudio build tag
type MicSource struct{}

// NewMicSource always fails with ErrMicUnavailable in this build
func NewMicSource(MicConfig) (*MicSource, error) {
	return nil, ErrMicUnavailable
}

func (m *MicSource) Run(context.Context, func(Frame)) error {
	return ErrMicUnavailable
}
