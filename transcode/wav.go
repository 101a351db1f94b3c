package transcode

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// DecodeWAVFile reads a PCM WAV file with go-audio, keeping its native sample rate.
// Multi-channel audio is downmixed when TargetChannels is 1.
func (d *Decoder) DecodeWAVFile(filename string) (*AudioData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	audio, err := d.DecodeWAV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	audio.Source = filename
	return audio, nil
}

// DecodeWAV reads a PCM WAV stream
func (d *Decoder) DecodeWAV(r io.ReadSeeker) (*AudioData, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav pcm: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, ErrNoSamples
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported wav bit depth: %d", bitDepth)
	}

	// Integer PCM full scale; 8-bit WAV is unsigned and centred on 128
	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}

	pcm := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = (float64(v) - offset) / scale
	}

	audio := &AudioData{
		PCM:        pcm,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Codec:      "pcm",
	}
	if audio.Channels < 1 {
		audio.Channels = 1
	}
	if d.config.TargetChannels == 1 && audio.Channels > 1 {
		audio.PCM = audio.Mono()
		audio.Channels = 1
	}
	if audio.SampleRate > 0 {
		frames := len(audio.PCM) / audio.Channels
		audio.Duration = time.Duration(frames) * time.Second / time.Duration(audio.SampleRate)
	}

	return audio, nil
}
