package transcode

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV encodes interleaved int samples as a 16-bit PCM WAV under t.TempDir()
func writeWAV(t *testing.T, sampleRate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestDecodeWAVFile_MonoSine(t *testing.T) {
	const sampleRate = 8000
	data := make([]int, sampleRate)
	for i := range data {
		data[i] = int(math.Round(0.5 * 32767 * math.Sin(2*math.Pi*440*float64(i)/sampleRate)))
	}
	path := writeWAV(t, sampleRate, 1, data)

	got, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}

	if got.SampleRate != sampleRate || got.Channels != 1 {
		t.Errorf("format = %d Hz x %d, want %d Hz x 1", got.SampleRate, got.Channels, sampleRate)
	}
	if len(got.PCM) != len(data) {
		t.Fatalf("len(PCM) = %d, want %d", len(got.PCM), len(data))
	}
	if got.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", got.Duration)
	}
	for i, v := range got.PCM {
		want := float64(data[i]) / 32768
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("PCM[%d] = %f, want %f", i, v, want)
		}
	}
	if got.Source != path {
		t.Errorf("Source = %q", got.Source)
	}
}

func TestDecodeWAVFile_StereoDownmix(t *testing.T) {
	// Left at +0.5 full scale, right at -0.25: mono average is 0.125
	data := make([]int, 0, 200)
	for range 100 {
		data = append(data, 16384, -8192)
	}
	path := writeWAV(t, 16000, 2, data)

	got, err := NewDecoder(nil).DecodeWAVFile(path)
	if err != nil {
		t.Fatalf("DecodeWAVFile: %v", err)
	}
	if got.Channels != 1 || len(got.PCM) != 100 {
		t.Fatalf("got %d channels, %d samples", got.Channels, len(got.PCM))
	}
	if math.Abs(got.PCM[0]-0.125) > 1e-9 {
		t.Errorf("PCM[0] = %f, want 0.125", got.PCM[0])
	}
}

func TestDecodeWAVFile_KeepsChannelsWhenAsked(t *testing.T) {
	path := writeWAV(t, 16000, 2, []int{100, 200, 300, 400})

	cfg := DefaultDecoderConfig()
	cfg.TargetChannels = 2
	got, err := NewDecoder(cfg).DecodeWAVFile(path)
	if err != nil {
		t.Fatalf("DecodeWAVFile: %v", err)
	}
	if got.Channels != 2 || len(got.PCM) != 4 {
		t.Errorf("got %d channels, %d samples", got.Channels, len(got.PCM))
	}
}

func TestDecodeWAVFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDecoder(nil).DecodeWAVFile(path); err == nil {
		t.Error("expected error for invalid wav")
	}
	if _, err := NewDecoder(nil).DecodeWAVFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBytesToFloat64(t *testing.T) {
	want := []float64{0, 0.5, -1}
	raw := make([]byte, 0, 8*len(want)+3)
	for _, v := range want {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	raw = append(raw, 1, 2, 3) // trailing partial sample

	if got := bytesToFloat64(raw); !slices.Equal(got, want) {
		t.Errorf("bytesToFloat64 = %v, want %v", got, want)
	}
	if got := bytesToFloat64([]byte{1, 2}); got != nil {
		t.Errorf("short input = %v, want nil", got)
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    AudioMetadata
		wantErr bool
	}{
		{
			name: "mp3 stream",
			json: `{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"48000","channels":2,"duration":"3.5","bit_rate":"128000","codec_long_name":"MP3"}]}`,
			want: AudioMetadata{SampleRate: 48000, Channels: 2, Codec: "mp3", Duration: 3.5, Bitrate: 128000, Format: "MP3"},
		},
		{
			name: "missing sample rate falls back",
			json: `{"streams":[{"codec_type":"audio","codec_name":"aac","channels":1}]}`,
			want: AudioMetadata{SampleRate: 44100, Channels: 1, Codec: "aac"},
		},
		{name: "no streams", json: `{"streams":[]}`, wantErr: true},
		{name: "video stream", json: `{"streams":[{"codec_type":"video","channels":1}]}`, wantErr: true},
		{name: "bad channels", json: `{"streams":[{"codec_type":"audio","channels":0}]}`, wantErr: true},
		{name: "not json", json: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFFprobeOutput([]byte(tt.json))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && *got != tt.want {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.MaxDuration = 10 * time.Second
	d := NewDecoder(cfg)

	args := d.buildFFmpegArgs(&AudioMetadata{SampleRate: 48000})
	for _, want := range []string{"f64le", "44100", "-t", "10.00", "aresample=resampler=soxr:precision=20"} {
		if !slices.Contains(args, want) {
			t.Errorf("args %v missing %q", args, want)
		}
	}

	args = d.buildFFmpegArgs(&AudioMetadata{SampleRate: 44100})
	if slices.Contains(args, "-af") {
		t.Errorf("no resampling expected at matching rate: %v", args)
	}
}

func TestMono(t *testing.T) {
	a := &AudioData{PCM: []float64{1, 0, 0.5, 0.5}, Channels: 2}
	if got := a.Mono(); !slices.Equal(got, []float64{0.5, 0.5}) {
		t.Errorf("Mono() = %v", got)
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = 0
	if err := NewDecoder(cfg).ValidateConfig(); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if err := NewDecoder(nil).ValidateConfig(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
