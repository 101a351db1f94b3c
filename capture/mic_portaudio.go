//go:build portaudio

package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/RyanBlaney/sonido-melody/logging"
)

// MicConfig selects the input device
type MicConfig struct {
	Device     string  // substring of the device name; empty uses the default input
	SampleRate float64 // 0 uses the device default
	FrameSize  int
}

// MicSource captures mono frames from a PortAudio input device
type MicSource struct {
	config MicConfig
}

// NewMicSource creates a microphone source
func NewMicSource(config MicConfig) (*MicSource, error) {
	if config.FrameSize <= 0 {
		config.FrameSize = DefaultFrameSize
	}
	return &MicSource{config: config}, nil
}

// Run opens the input stream and emits a frame per PortAudio buffer until ctx is done
func (m *MicSource) Run(ctx context.Context, emit func(Frame)) error {
	logger := logging.WithFields(logging.Fields{"component": "mic_source"})

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	device, err := m.findDevice()
	if err != nil {
		return err
	}

	params := portaudio.LowLatencyParameters(device, nil)
	params.Input.Channels = 1
	params.FramesPerBuffer = m.config.FrameSize
	if m.config.SampleRate > 0 {
		params.SampleRate = m.config.SampleRate
	}
	sampleRate := params.SampleRate

	var captured int
	stream, err := portaudio.OpenStream(params, func(in []float32) {
		samples := make([]float64, len(in))
		for i, v := range in {
			samples[i] = float64(v)
		}
		emit(Frame{
			Samples:    samples,
			SampleRate: sampleRate,
			Timestamp:  time.Duration(float64(captured) / sampleRate * float64(time.Second)),
		})
		captured += len(in)
	})
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start input stream: %w", err)
	}

	logger.Info("Microphone capture started", logging.Fields{
		"device":      device.Name,
		"sample_rate": sampleRate,
		"frame_size":  m.config.FrameSize,
	})

	<-ctx.Done()

	if err := stream.Stop(); err != nil {
		logger.Error(err, "Failed to stop input stream")
	}
	return ctx.Err()
}

func (m *MicSource) findDevice() (*portaudio.DeviceInfo, error) {
	if m.config.Device == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	for _, device := range devices {
		if device.MaxInputChannels > 0 && strings.Contains(device.Name, m.config.Device) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", m.config.Device)
}
