package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-melody/logging"
	"github.com/RyanBlaney/sonido-melody/transcode"
)

// PCMSource replays already decoded mono samples as frames
type PCMSource struct {
	pcm        []float64
	sampleRate float64
	frameSize  int
	realtime   bool
}

// NewPCMSource creates a source over pcm. With realtime set, frames are paced at
// the rate they would arrive from a live input.
func NewPCMSource(pcm []float64, sampleRate float64, frameSize int, realtime bool) *PCMSource {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	return &PCMSource{pcm: pcm, sampleRate: sampleRate, frameSize: frameSize, realtime: realtime}
}

// Run emits every complete frame, then returns nil
func (s *PCMSource) Run(ctx context.Context, emit func(Frame)) error {
	if s.sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %v", s.sampleRate)
	}

	frames := Split(s.pcm, s.sampleRate, s.frameSize)
	if len(frames) == 0 {
		return nil
	}

	var tick <-chan time.Time
	if s.realtime {
		ticker := time.NewTicker(frames[0].Duration())
		defer ticker.Stop()
		tick = ticker.C
	}

	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(frame)

		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// FileSourceConfig configures a FileSource
type FileSourceConfig struct {
	Path      string
	FrameSize int
	Realtime  bool
}

// FileSource decodes an audio file and replays it as frames
type FileSource struct {
	config  FileSourceConfig
	decoder *transcode.Decoder
}

// NewFileSource creates a file source; a nil decoder uses the default config
func NewFileSource(decoder *transcode.Decoder, config FileSourceConfig) *FileSource {
	if decoder == nil {
		decoder = transcode.NewDecoder(nil)
	}
	return &FileSource{config: config, decoder: decoder}
}

// Run decodes the whole file up front and then emits its frames
func (s *FileSource) Run(ctx context.Context, emit func(Frame)) error {
	logger := logging.WithFields(logging.Fields{
		"component": "file_source",
		"path":      s.config.Path,
	})

	audio, err := s.decoder.DecodeFile(ctx, s.config.Path)
	if err != nil {
		return fmt.Errorf("decode %s: %w", s.config.Path, err)
	}

	logger.Info("Replaying audio file", logging.Fields{
		"sample_rate": audio.SampleRate,
		"duration":    audio.Duration.String(),
		"realtime":    s.config.Realtime,
	})

	source := NewPCMSource(audio.Mono(), float64(audio.SampleRate), s.config.FrameSize, s.config.Realtime)
	return source.Run(ctx, emit)
}
