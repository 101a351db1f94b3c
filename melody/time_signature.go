package melody

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	// DefaultBeats and DefaultBeatValue replace out-of-range time signature fields
	DefaultBeats     = 4
	DefaultBeatValue = 4

	MinBeats = 1
	MaxBeats = 16
)

// ValidBeatValues are the accepted time signature denominators
var ValidBeatValues = []int{1, 2, 4, 8, 16, 32}

// TimeSignature is a normalised meter. Construct it with NormalizeTimeSignature or
// ParseTimeSignature; a zero value is not valid.
type TimeSignature struct {
	Beats     int // numerator, 1..16
	BeatValue int // denominator, one of ValidBeatValues
}

// CommonTime is 4/4
var CommonTime = TimeSignature{Beats: DefaultBeats, BeatValue: DefaultBeatValue}

// NormalizeTimeSignature coerces each field independently: a numerator outside 1..16
// becomes 4 and a denominator not in ValidBeatValues becomes 4.
func NormalizeTimeSignature(numerator, denominator int) TimeSignature {
	ts := TimeSignature{Beats: numerator, BeatValue: denominator}
	if numerator < MinBeats || numerator > MaxBeats {
		ts.Beats = DefaultBeats
	}
	if !slices.Contains(ValidBeatValues, denominator) {
		ts.BeatValue = DefaultBeatValue
	}
	return ts
}

// ParseTimeSignature reads "n/d". It never fails: a missing or unparseable part is
// treated as 0 and then coerced like any other invalid field.
func ParseTimeSignature(s string) TimeSignature {
	num, den, _ := strings.Cut(strings.TrimSpace(s), "/")
	return NormalizeTimeSignature(leadingInt(num), leadingInt(den))
}

// leadingInt parses the leading decimal digits of s ("6beats" -> 6), 0 when there are none
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// IsValid reports whether ts is already normalised
func (ts TimeSignature) IsValid() bool {
	return ts == NormalizeTimeSignature(ts.Beats, ts.BeatValue)
}

// String renders "n/d"
func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.BeatValue)
}

// MarshalText implements encoding.TextMarshaler so configs can carry "6/8"
func (ts TimeSignature) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the same coercion as ParseTimeSignature
func (ts *TimeSignature) UnmarshalText(text []byte) error {
	*ts = ParseTimeSignature(string(text))
	return nil
}
