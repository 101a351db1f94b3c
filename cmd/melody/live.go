package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-melody/capture"
	"github.com/RyanBlaney/sonido-melody/logging"
	"github.com/RyanBlaney/sonido-melody/melody"
	"github.com/RyanBlaney/sonido-melody/melody/config"
	"github.com/RyanBlaney/sonido-melody/observe"
	"github.com/RyanBlaney/sonido-melody/transcode"
)

const shutdownTimeout = 5 * time.Second

func runLive(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file (hot-reloaded)")
	input := fs.String("input", "", `"mic" or an audio file path (overrides audio.input)`)
	bpm := fs.Int("bpm", 0, "metronome tempo (overrides metronome.bpm)")
	realtime := fs.Bool("realtime", false, "pace file input at playback speed (overrides audio.realtime)")
	if err := fs.Parse(args); err != nil {
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

	// Flags win over the file, but only when given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Audio.Input = *input
		case "bpm":
			cfg.Metronome.BPM = *bpm
		case "realtime":
			cfg.Audio.Realtime = *realtime
		}
	})
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "melody: invalid configuration: %v\n", err)
		return 1
	}

	logger, err := installLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "melody: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, *configPath, logger); err != nil {
		logger.Error(err, "melody stopped with an error")
		return 1
	}
	logger.Info("Goodbye")
	return 0
}

func installLogger(level string) (*logging.ZapLogger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewZapLogger(lvl)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logging.SetGlobalLogger(logger)
	return logger, nil
}

func serve(ctx context.Context, cfg *config.Config, configPath string, logger logging.Logger) error {
	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "sonido-melody",
		ServiceVersion: version,
		Registry:       prometheus.NewRegistry(),
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics shutdown failed", logging.Fields{"error": err.Error()})
		}
	}()

	metrics, err := observe.NewMetrics(provider.MeterProvider())
	if err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}

	source, err := newSource(cfg)
	if err != nil {
		return err
	}

	term := newTerminal(os.Stdout)
	opts := append(cfg.SessionOptions(), melody.WithMetrics(metrics))
	session := melody.NewSession(term, term, term, opts...)
	clock := melody.NewBeatClock(func(ctx context.Context) {
		session.Tick(ctx)
	})
	defer clock.Stop()

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, func(prev, next *config.Config) {
			applyReload(ctx, prev, next, session, clock, logger)
		})
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	if cfg.Metronome.Enabled {
		if err := clock.Start(cfg.Metronome.BPM); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return session.Run(gctx)
	})

	g.Go(func() error {
		err := source.Run(gctx, func(f capture.Frame) {
			session.SubmitFrame(f)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("audio input: %w", err)
		}
		logger.Info("Audio input finished; press Ctrl+C to exit")
		return nil
	})

	if cfg.Server.MetricsAddr != "" {
		srv := newHTTPServer(cfg.Server.MetricsAddr, provider, session, metrics, logger)
		g.Go(func() error {
			logger.Info("Serving metrics", logging.Fields{"addr": cfg.Server.MetricsAddr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		clock.Stop()
		return nil
	})

	logger.Info("Melody tracker ready", logging.Fields{
		"input":          cfg.Audio.Input,
		"bpm":            cfg.Metronome.BPM,
		"time_signature": cfg.Metronome.Meter().String(),
		"metronome":      cfg.Metronome.Enabled,
	})

	return g.Wait()
}

func newSource(cfg *config.Config) (capture.Source, error) {
	var source capture.Source
	if cfg.Audio.Input == config.InputMic {
		mic, err := capture.NewMicSource(capture.MicConfig{
			Device:     cfg.Audio.Device,
			SampleRate: float64(cfg.Audio.SampleRate),
			FrameSize:  cfg.Audio.FrameSize,
		})
		if err != nil {
			return nil, err
		}
		source = mic
	} else {
		source = capture.NewFileSource(newDecoder(cfg), capture.FileSourceConfig{
			Path:      cfg.Audio.Input,
			FrameSize: cfg.Audio.FrameSize,
			Realtime:  cfg.Audio.Realtime,
		})
	}

	if cfg.Audio.DCCutoff > 0 {
		source = capture.NewDCBlockSource(source, cfg.Audio.DCCutoff)
	}
	return source, nil
}

func newDecoder(cfg *config.Config) *transcode.Decoder {
	dc := transcode.DefaultDecoderConfig()
	dc.TargetSampleRate = cfg.Audio.SampleRate
	if cfg.Audio.FFmpegPath != "" {
		dc.FFmpegPath = cfg.Audio.FFmpegPath
		if dir := filepath.Dir(cfg.Audio.FFmpegPath); dir != "." {
			dc.FFprobePath = filepath.Join(dir, "ffprobe")
		}
	}
	return transcode.NewDecoder(dc)
}

func newHTTPServer(addr string, provider *observe.Provider, session *melody.Session, metrics *observe.Metrics, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", provider.Handler())
	observe.NewHealthHandler(observe.Checker{Name: "session", Check: session.Ping}).Register(mux)

	return &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(metrics, logger)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// applyReload pushes the live-tunable settings of a reloaded config into the
// running session and clock. Everything else needs a restart.
func applyReload(ctx context.Context, prev, next *config.Config, session *melody.Session, clock *melody.BeatClock, logger logging.Logger) {
	if lvl, err := logging.ParseLevel(next.Server.LogLevel); err == nil && next.Server.LogLevel != prev.Server.LogLevel {
		logging.SetLevel(lvl)
	}

	if next.Metronome.BPM != prev.Metronome.BPM {
		if err := clock.SetBPM(next.Metronome.BPM); err != nil {
			logger.Warn("Ignoring tempo change", logging.Fields{"error": err.Error()})
		}
	}

	if ts := next.Metronome.Meter(); ts != prev.Metronome.Meter() {
		if _, err := session.SetTimeSignature(ctx, ts.Beats, ts.BeatValue); err != nil {
			logger.Warn("Time signature not applied", logging.Fields{"error": err.Error()})
		}
	}

	if next.Metronome.Volume != prev.Metronome.Volume {
		if err := session.SetClickVolume(ctx, next.Metronome.Volume); err != nil {
			logger.Warn("Click volume not applied", logging.Fields{"error": err.Error()})
		}
	}

	if next.Metronome.Enabled != prev.Metronome.Enabled {
		if next.Metronome.Enabled {
			if err := clock.Start(next.Metronome.BPM); err != nil {
				logger.Warn("Metronome not started", logging.Fields{"error": err.Error()})
			}
		} else {
			clock.Stop()
		}
	}

	logger.Info("Applied configuration", logging.Fields{
		"bpm":            clock.BPM(),
		"time_signature": next.Metronome.Meter().String(),
		"volume":         next.Metronome.Volume,
		"metronome":      clock.Running(),
	})
}
