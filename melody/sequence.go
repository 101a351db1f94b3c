package melody

import (
	"github.com/RyanBlaney/sonido-melody/algorithms/chroma"
	"github.com/RyanBlaney/sonido-melody/algorithms/common"
	"github.com/RyanBlaney/sonido-melody/algorithms/temporal"
)

// DefaultSequenceCapacity is how many committed notes the staff keeps
const DefaultSequenceCapacity = 16

// NoteSequence is the bounded list of committed staff tokens, oldest first
type NoteSequence struct {
	tokens *common.Ring[string]
}

// NewNoteSequence creates a sequence holding up to capacity tokens (default 16 if < 1)
func NewNoteSequence(capacity int) *NoteSequence {
	if capacity < 1 {
		capacity = DefaultSequenceCapacity
	}
	return &NoteSequence{tokens: common.NewRing[string](capacity)}
}

// Append adds a token and reports whether the oldest one was dropped
func (ns *NoteSequence) Append(token string) bool {
	return ns.tokens.Push(token)
}

// Tokens returns a copy of the sequence in commit order
func (ns *NoteSequence) Tokens() []string {
	return ns.tokens.Values()
}

// Len returns the number of tokens held
func (ns *NoteSequence) Len() int { return ns.tokens.Len() }

// Capacity returns the maximum number of tokens kept
func (ns *NoteSequence) Capacity() int { return ns.tokens.Cap() }

// Clear drops every token
func (ns *NoteSequence) Clear() { ns.tokens.Clear() }

// Score is what a Renderer draws: the committed notes and the meter
type Score struct {
	Notes         []string
	TimeSignature TimeSignature
}

// Beats is the voice length used for layout: the larger of the numerator and the note count
func (s Score) Beats() int {
	return max(s.TimeSignature.Beats, len(s.Notes))
}

// IsEmpty reports whether the renderer should draw an empty staff
func (s Score) IsEmpty() bool {
	return len(s.Notes) == 0
}

// Accumulator turns the smoothed pitch into a staff token once per beat.
// It reads the shared PitchHistory and owns the NoteSequence and time signature.
// Not safe for concurrent use; Session serialises access.
type Accumulator struct {
	history       *temporal.PitchHistory
	sequence      *NoteSequence
	timeSignature TimeSignature
}

// NewAccumulator creates an accumulator over history with a sequence of the given capacity
func NewAccumulator(history *temporal.PitchHistory, capacity int) *Accumulator {
	return &Accumulator{
		history:       history,
		sequence:      NewNoteSequence(capacity),
		timeSignature: CommonTime,
	}
}

// Tick commits the current smoothed note. It returns the committed token, or false when
// the history is empty or the average has no staff token; in both cases nothing changes.
func (a *Accumulator) Tick() (string, bool) {
	if a.history.Len() == 0 {
		return "", false
	}

	avg, err := a.history.Average()
	if err != nil {
		return "", false
	}

	note, ok := chroma.FrequencyToNote(avg)
	if !ok {
		return "", false
	}

	token, ok := note.Token()
	if !ok {
		return "", false
	}

	a.sequence.Append(token)
	return token, true
}

// SetTimeSignature normalises and stores the meter
func (a *Accumulator) SetTimeSignature(numerator, denominator int) TimeSignature {
	a.timeSignature = NormalizeTimeSignature(numerator, denominator)
	return a.timeSignature
}

// TimeSignature returns the current meter
func (a *Accumulator) TimeSignature() TimeSignature {
	return a.timeSignature
}

// Snapshot returns a copy of the committed notes with the current meter
func (a *Accumulator) Snapshot() Score {
	return Score{
		Notes:         a.sequence.Tokens(),
		TimeSignature: a.timeSignature,
	}
}

// Len returns the number of committed notes
func (a *Accumulator) Len() int {
	return a.sequence.Len()
}

// Clear drops every committed note; the meter is kept
func (a *Accumulator) Clear() {
	a.sequence.Clear()
}
