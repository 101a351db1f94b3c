package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/RyanBlaney/sonido-melody/logging"
	"github.com/RyanBlaney/sonido-melody/melody"
)

// staffRest fills beats that have no committed note yet
const staffRest = "·"

// terminal renders the session to a text stream. The status line is redrawn in
// place; every score change prints a fresh staff line below it.
// All calls come from the session goroutine.
type terminal struct {
	out    io.Writer
	logger logging.Logger
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{
		out:    out,
		logger: logging.WithFields(logging.Fields{"component": "terminal"}),
	}
}

func (t *terminal) Show(r melody.Readout) {
	fmt.Fprintf(t.out, "\r\033[K%s", r)
}

func (t *terminal) Render(score melody.Score) {
	fmt.Fprintf(t.out, "\r\033[K%s\n", formatStaff(score))
}

func (t *terminal) Click(volume float64) {
	t.logger.Debug("Click", logging.Fields{"gain": melody.ClickGain(volume)})
}

// formatStaff lays the score out as "| 4/4 | c/4 d/4 · · |", one slot per beat
func formatStaff(score melody.Score) string {
	slots := make([]string, score.Beats())
	for i := range slots {
		slots[i] = staffRest
	}
	copy(slots, score.Notes)

	return fmt.Sprintf("| %s | %s |", score.TimeSignature, strings.Join(slots, " "))
}
