package capture

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-melody/logging"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
	os.Exit(m.Run())
}

func TestSplit(t *testing.T) {
	pcm := make([]float64, 10)
	for i := range pcm {
		pcm[i] = float64(i)
	}

	frames := Split(pcm, 4, 4)
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2 (partial frame dropped)", len(frames))
	}
	if frames[1].Samples[0] != 4 || len(frames[1].Samples) != 4 {
		t.Errorf("frame 1 = %v", frames[1].Samples)
	}
	if frames[1].Timestamp != time.Second {
		t.Errorf("frame 1 timestamp = %v, want 1s", frames[1].Timestamp)
	}
	if frames[0].Duration() != time.Second {
		t.Errorf("frame duration = %v, want 1s", frames[0].Duration())
	}

	if got := Split(pcm[:3], 4, 4); len(got) != 0 {
		t.Errorf("short input gave %d frames", len(got))
	}
}

func TestPCMSource_EmitsAllFrames(t *testing.T) {
	src := NewPCMSource(make([]float64, 2048*3+100), 44100, 2048, false)

	var got []Frame
	if err := src.Run(context.Background(), func(f Frame) { got = append(got, f) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("emitted %d frames, want 3", len(got))
	}
	for _, f := range got {
		if len(f.Samples) != 2048 || f.SampleRate != 44100 {
			t.Errorf("frame = %d samples @ %v", len(f.Samples), f.SampleRate)
		}
	}
}

func TestPCMSource_Cancelled(t *testing.T) {
	// One-second frames in realtime mode: cancellation must cut the wait short
	src := NewPCMSource(make([]float64, 40), 10, 10, true)

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	start := time.Now()
	err := src.Run(ctx, func(Frame) {
		count++
		cancel()
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if count != 1 {
		t.Errorf("emitted %d frames after cancel, want 1", count)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Run did not return promptly after cancel")
	}
}

func TestPCMSource_InvalidRate(t *testing.T) {
	if err := NewPCMSource(make([]float64, 10), 0, 4, false).Run(context.Background(), func(Frame) {}); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestFileSource_WAV(t *testing.T) {
	const sampleRate = 8000
	path := filepath.Join(t.TempDir(), "a4.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	data := make([]int, 4096+10)
	for i := range data {
		data[i] = int(16000 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src := NewFileSource(nil, FileSourceConfig{Path: path, FrameSize: 1024})
	var frames []Frame
	if err := src.Run(context.Background(), func(f Frame) { frames = append(frames, f) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("emitted %d frames, want 4", len(frames))
	}
	if frames[0].SampleRate != sampleRate {
		t.Errorf("SampleRate = %v", frames[0].SampleRate)
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(nil, FileSourceConfig{Path: filepath.Join(t.TempDir(), "none.wav")})
	if err := src.Run(context.Background(), func(Frame) {}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDCBlockSource_RemovesOffset(t *testing.T) {
	const sr = 8000.0
	pcm := make([]float64, 2048*4)
	for i := range pcm {
		pcm[i] = 0.25
	}

	src := NewDCBlockSource(NewPCMSource(pcm, sr, 2048, false), 20)
	var frames []Frame
	if err := src.Run(context.Background(), func(f Frame) { frames = append(frames, f) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("emitted %d frames, want 4", len(frames))
	}

	// The blocker starts from rest, so the first sample passes through
	if frames[0].Samples[0] != 0.25 {
		t.Errorf("first sample = %v, want 0.25", frames[0].Samples[0])
	}
	last := frames[3].Samples
	if v := math.Abs(last[len(last)-1]); v > 1e-6 {
		t.Errorf("offset still present after settling: %v", v)
	}
	if pcm[len(pcm)-1] != 0.25 {
		t.Error("source samples were modified in place")
	}
}
