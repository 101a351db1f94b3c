package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-melody/logging"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// Fields missing from the file keep their [Default] values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and validates the result.
// Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
// The time signature is not checked; it is coerced when applied.
func Validate(cfg *Config) error {
	var errs []error

	// Audio
	if cfg.Audio.Input == "" {
		errs = append(errs, errors.New(`audio.input is required ("mic" or a file path)`))
	}
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameSize < 4 {
		errs = append(errs, fmt.Errorf("audio.frame_size %d must be at least 4", cfg.Audio.FrameSize))
	} else if cfg.Audio.FrameSize%2 != 0 {
		logging.Warn("audio.frame_size is odd; the last sample of each frame is ignored", logging.Fields{
			"frame_size": cfg.Audio.FrameSize,
		})
	}

	if cfg.Audio.DCCutoff < 0 {
		errs = append(errs, fmt.Errorf("audio.dc_cutoff_hz %.1f must not be negative", cfg.Audio.DCCutoff))
	}

	// Analysis
	a := cfg.Analysis
	if a.SilenceThreshold < 0 || a.SilenceThreshold >= 1 {
		errs = append(errs, fmt.Errorf("analysis.silence_threshold %.4f is out of range [0, 1)", a.SilenceThreshold))
	}
	if a.CorrelationThreshold < 0 || a.CorrelationThreshold > 1 {
		errs = append(errs, fmt.Errorf("analysis.correlation_threshold %.4f is out of range [0, 1]", a.CorrelationThreshold))
	}
	if a.FallbackThreshold < 0 || a.FallbackThreshold > 1 {
		errs = append(errs, fmt.Errorf("analysis.fallback_threshold %.4f is out of range [0, 1]", a.FallbackThreshold))
	}
	if a.InterpolationScale < 0 {
		errs = append(errs, fmt.Errorf("analysis.interpolation_scale %.2f must not be negative", a.InterpolationScale))
	}
	if a.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("analysis.history_size %d must be at least 1", a.HistorySize))
	}

	// Metronome
	if cfg.Metronome.BPM <= 0 {
		errs = append(errs, fmt.Errorf("metronome.bpm %d must be positive", cfg.Metronome.BPM))
	}
	if cfg.Metronome.Volume < 0 || cfg.Metronome.Volume > 100 {
		errs = append(errs, fmt.Errorf("metronome.volume %.1f is out of range [0, 100]", cfg.Metronome.Volume))
	}
	if ts := cfg.Metronome.TimeSignature; ts != "" && cfg.Metronome.Meter().String() != ts {
		logging.Debug("metronome.time_signature coerced", logging.Fields{
			"configured": ts,
			"applied":    cfg.Metronome.Meter().String(),
		})
	}

	// Sequence
	if cfg.Sequence.Capacity < 1 {
		errs = append(errs, fmt.Errorf("sequence.capacity %d must be at least 1", cfg.Sequence.Capacity))
	}

	// Server
	if _, err := logging.ParseLevel(cfg.Server.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("server.log_level: %w; valid values: debug, info, warn, error", err))
	}

	return errors.Join(errs...)
}
