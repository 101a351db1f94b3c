package melody

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-melody/logging"
)

// DefaultBPM is the tempo a new BeatClock starts at
const DefaultBPM = 120

// minInterval keeps absurd tempos from spinning a zero-period ticker
const minInterval = time.Millisecond

// ErrInvalidBPM is returned for a BPM that is not positive
var ErrInvalidBPM = errors.New("bpm must be positive")

// IntervalFor returns the beat period floor(60000/bpm) milliseconds
func IntervalFor(bpm int) (time.Duration, error) {
	if bpm <= 0 {
		return 0, ErrInvalidBPM
	}
	interval := time.Duration(60000/bpm) * time.Millisecond
	return max(interval, minInterval), nil
}

// BeatClock calls onBeat once per beat from its own goroutine.
// At most one ticker goroutine exists at a time: Stop and SetBPM wait for the
// previous one to exit before returning. onBeat must not call back into the clock.
type BeatClock struct {
	mu      sync.Mutex
	onBeat  func(ctx context.Context)
	bpm     int
	cancel  context.CancelFunc
	stopped chan struct{}
	logger  logging.Logger
}

// NewBeatClock creates a stopped clock at DefaultBPM. The context passed to onBeat
// is cancelled when the clock stops.
func NewBeatClock(onBeat func(ctx context.Context)) *BeatClock {
	return &BeatClock{
		onBeat: onBeat,
		bpm:    DefaultBPM,
		logger: logging.WithFields(logging.Fields{"component": "beat_clock"}),
	}
}

// Start runs the clock at bpm, replacing a running ticker
func (c *BeatClock) Start(bpm int) error {
	interval, err := IntervalFor(bpm)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.bpm = bpm
	c.startLocked(interval)
	return nil
}

// Stop halts the clock and waits for the ticker goroutine to exit. Stopping a
// stopped clock is a no-op.
func (c *BeatClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopLocked() {
		c.logger.Info("Metronome stopped")
	}
}

// SetBPM changes the tempo. A running clock is restarted at the new period; a
// stopped clock only records it for the next Start.
func (c *BeatClock) SetBPM(bpm int) error {
	interval, err := IntervalFor(bpm)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.bpm = bpm
	if c.cancel != nil {
		c.stopLocked()
		c.startLocked(interval)
	}
	return nil
}

// BPM returns the current tempo
func (c *BeatClock) BPM() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpm
}

// Running reports whether the ticker goroutine is active
func (c *BeatClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *BeatClock) startLocked(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	c.cancel = cancel
	c.stopped = stopped

	go c.loop(ctx, interval, stopped)

	c.logger.Info("Metronome running", logging.Fields{
		"bpm":         c.bpm,
		"interval_ms": interval.Milliseconds(),
	})
}

// stopLocked cancels the ticker and blocks until it has exited.
// Reports whether a ticker was running.
func (c *BeatClock) stopLocked() bool {
	if c.cancel == nil {
		return false
	}
	c.cancel()
	<-c.stopped
	c.cancel = nil
	c.stopped = nil
	return true
}

func (c *BeatClock) loop(ctx context.Context, interval time.Duration, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A stop that raced with this tick wins
			if ctx.Err() != nil {
				return
			}
			c.onBeat(ctx)
		}
	}
}
