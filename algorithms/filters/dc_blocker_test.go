package filters

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-melody/algorithms/common"
)

func TestNewDCBlocker_Cutoff(t *testing.T) {
	dc := NewDCBlocker(44100, 20)
	if got := dc.Cutoff(44100); math.Abs(got-20) > 1e-9 {
		t.Errorf("Cutoff() = %v, want 20", got)
	}

	if got := NewDCBlocker(0, 20).Pole(); got != DefaultDCPole {
		t.Errorf("Pole() with no sample rate = %v, want %v", got, DefaultDCPole)
	}
	if got := NewDCBlocker(100, 1000).Pole(); got != 0.001 {
		t.Errorf("Pole() for an absurd cutoff = %v, want clamped to 0.001", got)
	}
}

func TestDCBlocker_RemovesOffset(t *testing.T) {
	const sr = 44100.0
	dc := NewDCBlocker(sr, 10)

	// Half a second of pure offset settles towards zero
	offset := make([]float64, int(sr/2))
	for i := range offset {
		offset[i] = 0.3
	}
	out := dc.ProcessBuffer(offset)

	tail := out[len(out)-2048:]
	if rms := common.RMS(tail); rms > 0.001 {
		t.Errorf("RMS after settling = %v, want < 0.001", rms)
	}
}

func TestDCBlocker_PassesTone(t *testing.T) {
	const sr = 44100.0
	dc := NewDCBlocker(sr, 10)

	in := make([]float64, 8192)
	for i := range in {
		in[i] = 0.2 + 0.5*math.Sin(2*math.Pi*440*float64(i)/sr)
	}
	out := dc.ProcessBuffer(in)

	tail := out[len(out)-2048:]
	if mean := common.Mean(tail); math.Abs(mean) > 0.01 {
		t.Errorf("mean after filtering = %v, want about 0", mean)
	}
	want := 0.5 / math.Sqrt2
	if rms := common.RMS(tail); math.Abs(rms-want) > 0.02 {
		t.Errorf("tone RMS = %v, want about %v", rms, want)
	}
}

func TestDCBlocker_StateCarriesAcrossBuffers(t *testing.T) {
	in := []float64{1, 0.5, -0.25, 0.75, 0, -1}

	whole := NewDCBlocker(44100, 20).ProcessBuffer(in)

	split := NewDCBlocker(44100, 20)
	parts := append(split.ProcessBuffer(in[:3]), split.ProcessBuffer(in[3:])...)

	for i := range whole {
		if whole[i] != parts[i] {
			t.Fatalf("sample %d: %v != %v", i, whole[i], parts[i])
		}
	}

	split.Reset()
	if got := split.Process(1); got != 1 {
		t.Errorf("first sample after Reset = %v, want 1", got)
	}
}
