// Package capture produces fixed-size mono audio frames for the session,
// from decoded files or a live input device.
package capture

import (
	"context"
	"errors"
	"time"
)

// DefaultFrameSize matches the analysis window the estimator is tuned for
const DefaultFrameSize = 2048

// ErrMicUnavailable is returned when the binary was built without microphone support
var ErrMicUnavailable = errors.New("microphone input not available: build with -tags portaudio")

// Frame is one block of mono samples in [-1, 1]. Receivers must not modify Samples.
type Frame struct {
	Samples    []float64
	SampleRate float64
	Timestamp  time.Duration // offset of the first sample from the start of the source
}

// Duration is the time span the frame covers
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(f.Samples)) / f.SampleRate * float64(time.Second))
}

// Source delivers frames to emit until the input ends, fails, or ctx is cancelled.
// emit is called from a single goroutine and must not block for long.
type Source interface {
	Run(ctx context.Context, emit func(Frame)) error
}

// Split cuts mono PCM into consecutive frames of frameSize samples.
// A trailing partial frame is dropped. Frames share pcm's backing array.
func Split(pcm []float64, sampleRate float64, frameSize int) []Frame {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}

	count := len(pcm) / frameSize
	frames := make([]Frame, 0, count)
	for i := range count {
		start := i * frameSize
		frames = append(frames, Frame{
			Samples:    pcm[start : start+frameSize : start+frameSize],
			SampleRate: sampleRate,
			Timestamp:  time.Duration(float64(start) / sampleRate * float64(time.Second)),
		})
	}
	return frames
}
