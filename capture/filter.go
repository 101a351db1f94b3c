package capture

import (
	"context"

	"github.com/RyanBlaney/sonido-melody/algorithms/filters"
)

// DCBlockSource removes the DC offset from another source's frames. The filter
// state runs across frame boundaries and is rebuilt if the sample rate changes.
type DCBlockSource struct {
	src    Source
	cutoff float64
}

// NewDCBlockSource wraps src with a DC blocker at cutoffHz
func NewDCBlockSource(src Source, cutoffHz float64) *DCBlockSource {
	return &DCBlockSource{src: src, cutoff: cutoffHz}
}

func (s *DCBlockSource) Run(ctx context.Context, emit func(Frame)) error {
	var (
		blocker *filters.DCBlocker
		rate    float64
	)

	return s.src.Run(ctx, func(f Frame) {
		if blocker == nil || f.SampleRate != rate {
			blocker = filters.NewDCBlocker(f.SampleRate, s.cutoff)
			rate = f.SampleRate
		}
		f.Samples = blocker.ProcessBuffer(f.Samples)
		emit(f)
	})
}
