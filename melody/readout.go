package melody

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-melody/algorithms/chroma"
)

// Status lines shown next to the readout
const (
	StatusActive  = "analysing"
	StatusWaiting = "waiting for pitch"
)

// Readout is the per-frame display state. All string fields are ready to print;
// unknown values are chroma.Placeholder.
type Readout struct {
	Note      string // e.g. "C#4"
	Solfege   string // e.g. "도#"
	Octave    string // e.g. "4"
	Frequency string // smoothed Hz, two decimals
	Status    string
	Voiced    bool
	Hz        float64
}

// SilentReadout is shown for frames without a pitch
func SilentReadout() Readout {
	return Readout{
		Note:      chroma.Placeholder,
		Solfege:   chroma.Placeholder,
		Octave:    chroma.Placeholder,
		Frequency: chroma.Placeholder,
		Status:    StatusWaiting,
	}
}

// NewReadout builds the display state for a smoothed frequency.
// Solfege and octave are only shown for notes that fit on the staff.
func NewReadout(hz float64) Readout {
	note, ok := chroma.FrequencyToNote(hz)
	if !ok {
		return SilentReadout()
	}

	r := Readout{
		Note:      note.String(),
		Solfege:   chroma.Placeholder,
		Octave:    chroma.Placeholder,
		Frequency: fmt.Sprintf("%.2f", hz),
		Status:    StatusActive,
		Voiced:    true,
		Hz:        hz,
	}
	if _, onStaff := note.Token(); onStaff {
		r.Solfege = note.Solfege()
		r.Octave = note.OctaveLabel()
	}
	return r
}

// String renders a single status line
func (r Readout) String() string {
	return fmt.Sprintf("note %-4s %-3s octave %-2s %s Hz (%s)", r.Note, r.Solfege, r.Octave, r.Frequency, r.Status)
}

// Display shows the per-frame readout
type Display interface {
	Show(Readout)
}

// Renderer draws the committed notes on a staff; an empty Score means an empty staff
type Renderer interface {
	Render(Score)
}

// Clicker plays one metronome click at volume 0..100
type Clicker interface {
	Click(volume float64)
}

// ClickGain maps a 0..100 volume to a 0..1 gain, clamping out-of-range input
func ClickGain(volume float64) float64 {
	return clampVolume(volume) / 100
}

func clampVolume(volume float64) float64 {
	switch {
	case math.IsNaN(volume), volume < 0:
		return 0
	case volume > 100:
		return 100
	default:
		return volume
	}
}
