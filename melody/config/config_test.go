package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-melody/logging"
	"github.com/RyanBlaney/sonido-melody/melody"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
	os.Exit(m.Run())
}

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
}

func TestLoadFromReader_OverridesDefaults(t *testing.T) {
	const doc = `
audio:
  input: take.wav
  frame_size: 1024
analysis:
  silence_threshold: 0.02
  history_size: 5
metronome:
  bpm: 90
  time_signature: 6/8
sequence:
  capacity: 32
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Audio.Input != "take.wav" || cfg.Audio.FrameSize != 1024 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("sample_rate default lost: %d", cfg.Audio.SampleRate)
	}
	if cfg.Analysis.SilenceThreshold != 0.02 {
		t.Errorf("silence_threshold = %v, want 0.02", cfg.Analysis.SilenceThreshold)
	}
	if cfg.Analysis.CorrelationThreshold != 0.9 {
		t.Errorf("correlation_threshold default lost: %v", cfg.Analysis.CorrelationThreshold)
	}
	if cfg.Analysis.HistorySize != 5 {
		t.Errorf("history_size = %d, want 5", cfg.Analysis.HistorySize)
	}
	if cfg.Metronome.BPM != 90 || !cfg.Metronome.Enabled {
		t.Errorf("metronome = %+v", cfg.Metronome)
	}
	if got := cfg.Metronome.Meter(); got != (melody.TimeSignature{Beats: 6, BeatValue: 8}) {
		t.Errorf("Meter() = %v, want 6/8", got)
	}
	if cfg.Sequence.Capacity != 32 {
		t.Errorf("capacity = %d, want 32", cfg.Sequence.Capacity)
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader(empty): %v", err)
	}
	if cfg.Metronome.BPM != melody.DefaultBPM {
		t.Errorf("BPM = %d, want %d", cfg.Metronome.BPM, melody.DefaultBPM)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("metronome:\n  tempo: 100\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadFromReader_CoercesTimeSignature(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("metronome:\n  time_signature: 3/7\n"))
	if err != nil {
		t.Fatalf("an invalid time signature must not be rejected: %v", err)
	}
	if got := cfg.Metronome.Meter().String(); got != "3/4" {
		t.Errorf("Meter() = %s, want 3/4", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{
			name:   "missing input",
			mutate: func(c *Config) { c.Audio.Input = "" },
			want:   []string{"audio.input"},
		},
		{
			name:   "tiny frame",
			mutate: func(c *Config) { c.Audio.FrameSize = 2 },
			want:   []string{"audio.frame_size"},
		},
		{
			name:   "bad thresholds",
			mutate: func(c *Config) { c.Analysis.SilenceThreshold = 1.5; c.Analysis.CorrelationThreshold = -1 },
			want:   []string{"analysis.silence_threshold", "analysis.correlation_threshold"},
		},
		{
			name:   "zero bpm",
			mutate: func(c *Config) { c.Metronome.BPM = 0 },
			want:   []string{"metronome.bpm"},
		},
		{
			name:   "loud",
			mutate: func(c *Config) { c.Metronome.Volume = 101 },
			want:   []string{"metronome.volume"},
		},
		{
			name: "several problems reported together",
			mutate: func(c *Config) {
				c.Sequence.Capacity = 0
				c.Analysis.HistorySize = 0
				c.Server.LogLevel = "chatty"
			},
			want: []string{"sequence.capacity", "analysis.history_size", "server.log_level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSessionOptions(t *testing.T) {
	cfg := Default()
	cfg.Metronome.TimeSignature = "5/4"
	if got := len(cfg.SessionOptions()); got != 5 {
		t.Errorf("len(SessionOptions()) = %d, want 5", got)
	}
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "melody.yaml")
	writeConfig(t, path, "metronome:\n  bpm: 100\n")

	var (
		mu      sync.Mutex
		changes [][2]int
	)
	w, err := NewWatcher(path, func(old, new *Config) {
		mu.Lock()
		changes = append(changes, [2]int{old.Metronome.BPM, new.Metronome.BPM})
		mu.Unlock()
	}, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if w.Current().Metronome.BPM != 100 {
		t.Fatalf("initial BPM = %d", w.Current().Metronome.BPM)
	}

	// Make sure the mtime moves even on coarse filesystems
	writeConfig(t, path, "metronome:\n  bpm: 140\n")
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for w.Current().Metronome.BPM != 140 {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not pick up the change")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 1 || changes[0] != [2]int{100, 140} {
		t.Errorf("changes = %v, want [[100 140]]", changes)
	}
}

func TestWatcher_IgnoresInvalidChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "melody.yaml")
	writeConfig(t, path, "metronome:\n  bpm: 100\n")

	called := make(chan struct{}, 1)
	w, err := NewWatcher(path, func(_, _ *Config) { called <- struct{}{} }, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, "metronome:\n  bpm: -5\n")
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	select {
	case <-called:
		t.Fatal("onChange called for an invalid config")
	case <-time.After(100 * time.Millisecond):
	}
	if w.Current().Metronome.BPM != 100 {
		t.Errorf("Current().BPM = %d, want 100", w.Current().Metronome.BPM)
	}
	w.Stop() // idempotent
}

func TestNewWatcher_InvalidInitial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "melody.yaml")
	writeConfig(t, path, "bogus: true\n")
	if _, err := NewWatcher(path, nil); err == nil {
		t.Fatal("expected error for invalid initial config")
	}
}
