// Package config loads the melody tracker's YAML configuration.
package config

import (
	"github.com/RyanBlaney/sonido-melody/algorithms/temporal"
	"github.com/RyanBlaney/sonido-melody/algorithms/tonal"
	"github.com/RyanBlaney/sonido-melody/capture"
	"github.com/RyanBlaney/sonido-melody/melody"
)

// InputMic selects the live microphone instead of a file path
const InputMic = "mic"

// Config is the root configuration.
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Metronome MetronomeConfig `yaml:"metronome"`
	Sequence  SequenceConfig  `yaml:"sequence"`
	Server    ServerConfig    `yaml:"server"`
}

// AudioConfig selects and shapes the audio input.
type AudioConfig struct {
	// Input is "mic" or a path to an audio file.
	Input string `yaml:"input"`

	// SampleRate is the capture rate for the microphone and the ffmpeg target rate
	// for non-WAV files. WAV files keep their own rate.
	SampleRate int `yaml:"sample_rate"`

	// FrameSize is the number of samples per analysed frame.
	FrameSize int `yaml:"frame_size"`

	// Device is a substring of the input device name; empty uses the default device.
	Device string `yaml:"device"`

	// Realtime paces file input at the speed it would arrive from a microphone.
	Realtime bool `yaml:"realtime"`

	// DCCutoff enables a DC blocker on the input at this cutoff in Hz. 0 disables it.
	DCCutoff float64 `yaml:"dc_cutoff_hz"`

	FFmpegPath string `yaml:"ffmpeg_path"`
}

// AnalysisConfig tunes the pitch estimator and smoother.
type AnalysisConfig struct {
	tonal.PitchEstimatorParams `yaml:",inline"`

	HistorySize int `yaml:"history_size"`
}

// MetronomeConfig drives the beat clock and click.
type MetronomeConfig struct {
	Enabled bool    `yaml:"enabled"`
	BPM     int     `yaml:"bpm"`
	Volume  float64 `yaml:"volume"`

	// TimeSignature is "n/d". Out-of-range fields are coerced to 4, never rejected.
	TimeSignature string `yaml:"time_signature"`
}

// Meter returns the normalised time signature
func (m MetronomeConfig) Meter() melody.TimeSignature {
	return melody.ParseTimeSignature(m.TimeSignature)
}

// SequenceConfig bounds the committed note list.
type SequenceConfig struct {
	Capacity int `yaml:"capacity"`
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// MetricsAddr is the listen address for /metrics, /healthz and /readyz.
	// Empty disables the HTTP server.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Input:      InputMic,
			SampleRate: 44100,
			FrameSize:  capture.DefaultFrameSize,
			FFmpegPath: "ffmpeg",
		},
		Analysis: AnalysisConfig{
			PitchEstimatorParams: tonal.DefaultPitchEstimatorParams(),
			HistorySize:          temporal.DefaultHistorySize,
		},
		Metronome: MetronomeConfig{
			Enabled:       true,
			BPM:           melody.DefaultBPM,
			Volume:        melody.DefaultClickVolume,
			TimeSignature: melody.CommonTime.String(),
		},
		Sequence: SequenceConfig{
			Capacity: melody.DefaultSequenceCapacity,
		},
		Server: ServerConfig{
			LogLevel:    "info",
			MetricsAddr: ":9464",
		},
	}
}

// SessionOptions maps the analysis, sequence and metronome sections onto session options
func (c *Config) SessionOptions() []melody.SessionOption {
	return []melody.SessionOption{
		melody.WithEstimator(tonal.NewPitchEstimatorWithParams(c.Analysis.PitchEstimatorParams)),
		melody.WithHistorySize(c.Analysis.HistorySize),
		melody.WithSequenceCapacity(c.Sequence.Capacity),
		melody.WithTimeSignature(c.Metronome.Meter()),
		melody.WithClickVolume(c.Metronome.Volume),
	}
}
