package melody

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/sonido-melody/algorithms/temporal"
	"github.com/RyanBlaney/sonido-melody/algorithms/tonal"
	"github.com/RyanBlaney/sonido-melody/capture"
	"github.com/RyanBlaney/sonido-melody/logging"
	"github.com/RyanBlaney/sonido-melody/observe"
)

const (
	// DefaultMailboxSize is how many frames may wait for the session before new ones are dropped
	DefaultMailboxSize = 8

	// DefaultClickVolume is the metronome volume on a 0..100 scale
	DefaultClickVolume = 50.0
)

var (
	// ErrSessionClosed is returned by calls made after Run has returned
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionRunning is returned when Run is called twice
	ErrSessionRunning = errors.New("session already running")
)

// SessionOption configures a Session
type SessionOption func(*Session)

// WithEstimator replaces the default pitch estimator
func WithEstimator(estimator *tonal.PitchEstimator) SessionOption {
	return func(s *Session) { s.estimator = estimator }
}

// WithHistorySize sets how many estimates the smoother keeps
func WithHistorySize(size int) SessionOption {
	return func(s *Session) { s.historySize = size }
}

// WithSequenceCapacity sets how many committed notes the staff keeps
func WithSequenceCapacity(capacity int) SessionOption {
	return func(s *Session) { s.sequenceCapacity = capacity }
}

// WithMailboxSize sets the frame queue depth
func WithMailboxSize(size int) SessionOption {
	return func(s *Session) { s.mailboxSize = size }
}

// WithTimeSignature sets the initial meter (normalised)
func WithTimeSignature(ts TimeSignature) SessionOption {
	return func(s *Session) { s.initialTimeSignature = NormalizeTimeSignature(ts.Beats, ts.BeatValue) }
}

// WithClickVolume sets the initial metronome volume (clamped to 0..100)
func WithClickVolume(volume float64) SessionOption {
	return func(s *Session) { s.volume = clampVolume(volume) }
}

// WithMetrics records session activity on m
func WithMetrics(m *observe.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithLogger replaces the session logger
func WithLogger(logger logging.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// Session owns the pitch history, note sequence, meter, and click volume.
// Frames, beats, and control calls are messages handled one at a time by Run,
// so none of that state is shared between goroutines.
type Session struct {
	estimator *tonal.PitchEstimator
	history   *temporal.PitchHistory
	acc       *Accumulator
	volume    float64

	display  Display
	renderer Renderer
	clicker  Clicker
	metrics  *observe.Metrics
	logger   logging.Logger

	frames  chan capture.Frame
	ticks   chan struct{}
	control chan *controlMsg
	done    chan struct{}
	running atomic.Bool

	historySize          int
	sequenceCapacity     int
	mailboxSize          int
	initialTimeSignature TimeSignature
}

// NewSession creates a session reporting to the given collaborators. Any of them may be nil.
func NewSession(display Display, renderer Renderer, clicker Clicker, opts ...SessionOption) *Session {
	s := &Session{
		display:              display,
		renderer:             renderer,
		clicker:              clicker,
		volume:               DefaultClickVolume,
		historySize:          temporal.DefaultHistorySize,
		sequenceCapacity:     DefaultSequenceCapacity,
		mailboxSize:          DefaultMailboxSize,
		initialTimeSignature: CommonTime,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.display == nil {
		s.display = nopCollaborator{}
	}
	if s.renderer == nil {
		s.renderer = nopCollaborator{}
	}
	if s.clicker == nil {
		s.clicker = nopCollaborator{}
	}
	if s.estimator == nil {
		s.estimator = tonal.NewPitchEstimator()
	}
	if s.metrics == nil {
		s.metrics = observe.Discard()
	}
	if s.logger == nil {
		s.logger = logging.WithFields(logging.Fields{"component": "session"})
	}
	if s.mailboxSize < 1 {
		s.mailboxSize = DefaultMailboxSize
	}

	s.history = temporal.NewPitchHistory(s.historySize)
	s.acc = NewAccumulator(s.history, s.sequenceCapacity)
	s.acc.SetTimeSignature(s.initialTimeSignature.Beats, s.initialTimeSignature.BeatValue)

	s.frames = make(chan capture.Frame, s.mailboxSize)
	s.ticks = make(chan struct{})
	s.control = make(chan *controlMsg)
	s.done = make(chan struct{})
	return s
}

// Run processes messages until ctx is cancelled. It draws the empty staff first.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSessionRunning
	}
	defer close(s.done)

	s.logger.Info("Session started", logging.Fields{
		"time_signature": s.acc.TimeSignature().String(),
		"history_size":   s.history.Capacity(),
		"capacity":       s.acc.sequence.Capacity(),
	})
	s.renderer.Render(s.acc.Snapshot())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session stopped", logging.Fields{"notes": s.acc.Len()})
			return nil
		case frame := <-s.frames:
			s.handleFrame(ctx, frame)
		case <-s.ticks:
			s.handleTick(ctx)
		case msg := <-s.control:
			msg.run()
		}
	}
}

// SubmitFrame hands a frame to the session without blocking. When the mailbox is
// full the frame is dropped, counted, and false is returned.
func (s *Session) SubmitFrame(frame capture.Frame) bool {
	select {
	case s.frames <- frame:
		return true
	default:
		s.metrics.FramesDropped.Add(context.Background(), 1)
		return false
	}
}

// Tick posts one beat and waits until the session has taken it. It returns false
// if ctx ends or the session has stopped first.
func (s *Session) Tick(ctx context.Context) bool {
	select {
	case s.ticks <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	case <-s.done:
		return false
	}
}

// SetTimeSignature normalises and applies a new meter, then re-renders the staff
func (s *Session) SetTimeSignature(ctx context.Context, numerator, denominator int) (TimeSignature, error) {
	var ts TimeSignature
	err := s.do(ctx, func() {
		ts = s.acc.SetTimeSignature(numerator, denominator)
		s.logger.Debug("Time signature changed", logging.Fields{"time_signature": ts.String()})
		s.renderer.Render(s.acc.Snapshot())
	})
	return ts, err
}

// SetClickVolume sets the metronome volume, clamped to 0..100
func (s *Session) SetClickVolume(ctx context.Context, volume float64) error {
	return s.do(ctx, func() {
		s.volume = clampVolume(volume)
	})
}

// Reset clears the pitch history and the committed notes; the meter and volume stay
func (s *Session) Reset(ctx context.Context) error {
	return s.do(ctx, func() {
		s.history.Reset()
		s.acc.Clear()
		s.logger.Info("Session reset")
		s.renderer.Render(s.acc.Snapshot())
	})
}

// Snapshot returns the committed notes and current meter
func (s *Session) Snapshot(ctx context.Context) (Score, error) {
	var score Score
	err := s.do(ctx, func() {
		score = s.acc.Snapshot()
	})
	return score, err
}

// State is a point-in-time view of the session for diagnostics
type State struct {
	Score       Score
	History     []float64
	ClickVolume float64
}

// State returns a copy of the session state
func (s *Session) State(ctx context.Context) (State, error) {
	var st State
	err := s.do(ctx, func() {
		st = State{
			Score:       s.acc.Snapshot(),
			History:     s.history.Values(),
			ClickVolume: s.volume,
		}
	})
	return st, err
}

// Ping round-trips through the mailbox; it fails when Run is not serving
func (s *Session) Ping(ctx context.Context) error {
	if !s.running.Load() {
		return errors.New("session not started")
	}
	return s.do(ctx, func() {})
}

// controlMsg is a control call waiting for the session goroutine. Whichever of
// Run and the caller claims it first decides whether fn runs.
type controlMsg struct {
	fn       func()
	claimed  atomic.Bool
	finished chan struct{}
}

func (m *controlMsg) run() {
	if !m.claimed.CompareAndSwap(false, true) {
		return
	}
	m.fn()
	close(m.finished)
}

// do runs fn on the session goroutine and waits for it to finish.
// A non-nil error means fn did not run and never will.
func (s *Session) do(ctx context.Context, fn func()) error {
	msg := &controlMsg{fn: fn, finished: make(chan struct{})}

	select {
	case s.control <- msg:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}

	select {
	case <-msg.finished:
		return nil
	case <-ctx.Done():
		if msg.claimed.CompareAndSwap(false, true) {
			return ctx.Err()
		}
		// Already running on the session goroutine
		<-msg.finished
		return nil
	}
}

func (s *Session) handleFrame(ctx context.Context, frame capture.Frame) {
	start := time.Now()
	hz, ok := s.estimator.Estimate(frame.Samples, frame.SampleRate)
	s.metrics.RecordFrame(ctx, ok, time.Since(start).Seconds())

	if !ok || !s.history.Push(hz) {
		s.display.Show(SilentReadout())
		return
	}

	avg, err := s.history.Average()
	if err != nil {
		s.display.Show(SilentReadout())
		return
	}

	s.metrics.Frequency.Record(ctx, avg)
	readout := NewReadout(avg)
	s.display.Show(readout)

	s.logger.Debug("Pitch detected", logging.Fields{
		"raw_hz":      hz,
		"smoothed_hz": avg,
		"note":        readout.Note,
		"at":          frame.Timestamp.String(),
	})
}

func (s *Session) handleTick(ctx context.Context) {
	s.clicker.Click(s.volume)

	token, ok := s.acc.Tick()
	s.metrics.RecordTick(ctx, ok, s.acc.Len())
	if !ok {
		return
	}

	s.logger.Debug("Note committed", logging.Fields{
		"token": token,
		"notes": s.acc.Len(),
	})
	s.renderer.Render(s.acc.Snapshot())
}

type nopCollaborator struct{}

func (nopCollaborator) Show(Readout)  {}
func (nopCollaborator) Render(Score)  {}
func (nopCollaborator) Click(float64) {}
