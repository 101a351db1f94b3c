// Package observe holds the melody tracker's OpenTelemetry instruments, the
// Prometheus exporter bridge, and the health endpoints served next to /metrics.
//
// Components take a *Metrics explicitly. Tests build one with [NewMetrics]
// over an sdkmetric.ManualReader; [Discard] returns instruments backed by the
// no-op provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope for every melody instrument.
const meterName = "github.com/RyanBlaney/sonido-melody"

// Tick results recorded on Ticks.
const (
	TickCommitted = "committed"
	TickSkipped   = "skipped"
)

// Metrics holds the instruments. The underlying OTel types are safe for
// concurrent use.
type Metrics struct {
	// Frames counts analysed frames. Attribute: voiced (bool).
	Frames metric.Int64Counter

	// FramesDropped counts frames rejected because the session mailbox was full.
	FramesDropped metric.Int64Counter

	// EstimateDuration is the time spent in the pitch estimator per frame.
	EstimateDuration metric.Float64Histogram

	// Ticks counts beat ticks. Attribute: result (committed|skipped).
	Ticks metric.Int64Counter

	// SequenceLength is the number of notes on the staff.
	SequenceLength metric.Int64Gauge

	// Frequency is the latest smoothed frequency in Hz.
	Frequency metric.Float64Gauge

	// HTTPRequestDuration covers /metrics, /healthz and /readyz. Attributes: method, path, status.
	HTTPRequestDuration metric.Float64Histogram
}

// estimateBuckets are in seconds; a 2048-sample frame usually lands well under a millisecond.
var estimateBuckets = []float64{
	0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025,
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Frames, err = m.Int64Counter("melody.frames",
		metric.WithDescription("Audio frames analysed, by whether a pitch was found."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("melody.frames.dropped",
		metric.WithDescription("Audio frames dropped because the session was busy."),
	); err != nil {
		return nil, err
	}
	if met.EstimateDuration, err = m.Float64Histogram("melody.estimate.duration",
		metric.WithDescription("Pitch estimation latency per frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(estimateBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Ticks, err = m.Int64Counter("melody.ticks",
		metric.WithDescription("Metronome ticks by whether a note was committed."),
	); err != nil {
		return nil, err
	}
	if met.SequenceLength, err = m.Int64Gauge("melody.sequence.length",
		metric.WithDescription("Notes currently on the staff."),
	); err != nil {
		return nil, err
	}
	if met.Frequency, err = m.Float64Gauge("melody.frequency",
		metric.WithDescription("Latest smoothed fundamental frequency."),
		metric.WithUnit("Hz"),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("melody.http.request.duration",
		metric.WithDescription("Latency of the diagnostics HTTP endpoints."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordFrame counts one analysed frame
func (m *Metrics) RecordFrame(ctx context.Context, voiced bool, seconds float64) {
	m.Frames.Add(ctx, 1, metric.WithAttributes(attribute.Bool("voiced", voiced)))
	m.EstimateDuration.Record(ctx, seconds)
}

// RecordTick counts one beat and, when committed, the new staff length
func (m *Metrics) RecordTick(ctx context.Context, committed bool, length int) {
	result := TickSkipped
	if committed {
		result = TickCommitted
	}
	m.Ticks.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.SequenceLength.Record(ctx, int64(length))
}

var (
	discard     *Metrics
	discardOnce sync.Once
)

// Discard returns instruments that record nothing
func Discard() *Metrics {
	discardOnce.Do(func() {
		var err error
		discard, err = NewMetrics(noop.NewMeterProvider())
		if err != nil {
			panic("observe: noop instruments: " + err.Error())
		}
	})
	return discard
}

// Global builds instruments from the globally registered provider (see InitProvider)
func Global() (*Metrics, error) {
	return NewMetrics(otel.GetMeterProvider())
}
