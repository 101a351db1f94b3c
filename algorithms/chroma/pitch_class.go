package chroma

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-melody/algorithms/common"
)

const (
	// ReferenceFrequency is A4 in Hz
	ReferenceFrequency = 440.0

	// ReferenceNote is the note number of A4
	ReferenceNote = 69

	// MinStaffOctave and MaxStaffOctave bound the octaves a staff token can carry (one digit)
	MinStaffOctave = 0
	MaxStaffOctave = 9

	// Placeholder is shown for labels that cannot be derived
	Placeholder = "--"
)

// PitchClassNames lists the 12 chromatic pitch classes, index 0 = C
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// solfegeNames maps each pitch class name to its fixed-do syllable
var solfegeNames = map[string]string{
	"C":  "도",
	"C#": "도#",
	"D":  "레",
	"D#": "레#",
	"E":  "미",
	"F":  "파",
	"F#": "파#",
	"G":  "솔",
	"G#": "솔#",
	"A":  "라",
	"A#": "라#",
	"B":  "시",
}

// Note is a pitch class plus octave. Every label is derived from these two fields.
type Note struct {
	Class  int // Pitch class number (0=C, 1=C#, ..., 11=B)
	Octave int // Scientific octave, middle C = C4
}

// FrequencyToNote maps a frequency in Hz to the nearest equal-tempered note.
// It fails for non-positive or non-finite input.
func FrequencyToNote(freq float64) (Note, bool) {
	if !common.IsFinitePositive(freq) {
		return Note{}, false
	}

	noteNumber := 12*math.Log2(freq/ReferenceFrequency) + ReferenceNote
	return NoteFromMIDI(int(math.Round(noteNumber))), true
}

// NoteFromMIDI builds the note for a MIDI-style note number (A4 = 69)
func NoteFromMIDI(number int) Note {
	class := ((number % 12) + 12) % 12
	octave := int(math.Floor(float64(number)/12)) - 1
	return Note{Class: class, Octave: octave}
}

// Name returns the pitch class name, e.g. "C#"
func (n Note) Name() string {
	if n.Class < 0 || n.Class >= len(PitchClassNames) {
		return Placeholder
	}
	return PitchClassNames[n.Class]
}

// String returns the name with octave, e.g. "C#4"
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name(), n.Octave)
}

// Solfege returns the fixed-do syllable for the pitch class
func (n Note) Solfege() string {
	return SolfegeFor(n.Name())
}

// OctaveLabel returns the octave as display text
func (n Note) OctaveLabel() string {
	return strconv.Itoa(n.Octave)
}

// MIDI returns the note number (A4 = 69)
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + n.Class
}

// Frequency returns the equal-tempered centre frequency of the note
func (n Note) Frequency() float64 {
	return ReferenceFrequency * math.Pow(2, float64(n.MIDI()-ReferenceNote)/12)
}

// Cents returns how far freq sits from the note centre, in hundredths of a semitone
func (n Note) Cents(freq float64) float64 {
	if !common.IsFinitePositive(freq) {
		return 0
	}
	return 1200 * math.Log2(freq/n.Frequency())
}

// Token returns the staff token "<lowercase name>/<octave>", e.g. "c#/4".
// Octaves outside MinStaffOctave..MaxStaffOctave have no token.
func (n Note) Token() (string, bool) {
	if n.Octave < MinStaffOctave || n.Octave > MaxStaffOctave || n.Name() == Placeholder {
		return "", false
	}
	return strings.ToLower(n.Name()) + "/" + n.OctaveLabel(), true
}

// SolfegeFor looks up the syllable for a pitch class name, or Placeholder if unknown
func SolfegeFor(name string) string {
	if syllable, ok := solfegeNames[name]; ok {
		return syllable
	}
	return Placeholder
}
