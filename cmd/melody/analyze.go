package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/RyanBlaney/sonido-melody/algorithms/chroma"
	"github.com/RyanBlaney/sonido-melody/algorithms/spectral"
	"github.com/RyanBlaney/sonido-melody/algorithms/temporal"
	"github.com/RyanBlaney/sonido-melody/algorithms/tonal"
	"github.com/RyanBlaney/sonido-melody/capture"
	"github.com/RyanBlaney/sonido-melody/logging"
	"github.com/RyanBlaney/sonido-melody/melody/config"
)

// analysisRow is one line of the offline report
type analysisRow struct {
	Time     float64 // seconds from the start of the file
	Estimate float64 // raw estimator output, 0 when unvoiced
	Smoothed float64 // recency-weighted mean, 0 while the history is empty
	Note     string
	Peak     float64 // strongest FFT bin, 0 when none
}

func runAnalyze(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional YAML configuration file")
	input := fs.String("input", "", "audio file to analyse (required)")
	frameSize := fs.Int("frame", 0, "samples per frame (overrides audio.frame_size)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "melody analyze: -input is required")
		fs.Usage()
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "melody: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	cfg.Audio.Input = *input
	if *frameSize > 0 {
		cfg.Audio.FrameSize = *frameSize
	}

	logger, err := installLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "melody: %v\n", err)
		return 1
	}
	defer logger.Sync()

	audio, err := newDecoder(cfg).DecodeFile(context.Background(), *input)
	if err != nil {
		logger.Error(err, "Failed to decode input", logging.Fields{"path": *input})
		return 1
	}

	frames := capture.Split(audio.Mono(), float64(audio.SampleRate), cfg.Audio.FrameSize)
	rows := analyzeFrames(frames, tonal.NewPitchEstimatorWithParams(cfg.Analysis.PitchEstimatorParams), cfg.Analysis.HistorySize)

	logger.Info("Analysed file", logging.Fields{
		"path":        *input,
		"sample_rate": audio.SampleRate,
		"frames":      len(rows),
	})

	if err := writeReport(out, rows); err != nil {
		logger.Error(err, "Failed to write report")
		return 1
	}
	return 0
}

// analyzeFrames runs the live pipeline minus the clock: estimate, smooth and map to a note
func analyzeFrames(frames []capture.Frame, estimator *tonal.PitchEstimator, historySize int) []analysisRow {
	history := temporal.NewPitchHistory(historySize)
	rows := make([]analysisRow, 0, len(frames))

	var elapsed float64
	for _, frame := range frames {
		row := analysisRow{Time: elapsed, Note: chroma.Placeholder}
		elapsed += frame.Duration().Seconds()

		if hz, ok := estimator.Estimate(frame.Samples, frame.SampleRate); ok {
			row.Estimate = hz
			history.Push(hz)
		}
		if avg, err := history.Average(); err == nil {
			row.Smoothed = avg
			if note, ok := chroma.FrequencyToNote(avg); ok {
				row.Note = note.String()
			}
		}
		if peak, ok := spectral.DominantFrequency(frame.Samples, frame.SampleRate); ok {
			row.Peak = peak
		}
		rows = append(rows, row)
	}
	return rows
}

func writeReport(out io.Writer, rows []analysisRow) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "time (s)\testimate (Hz)\tsmoothed (Hz)\tnote\tfft peak (Hz)\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\t%s\t\n",
			r.Time, formatHz(r.Estimate), formatHz(r.Smoothed), r.Note, formatHz(r.Peak))
	}
	return tw.Flush()
}

func formatHz(hz float64) string {
	if hz <= 0 {
		return chroma.Placeholder
	}
	return fmt.Sprintf("%.2f", hz)
}
