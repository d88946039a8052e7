// Package observe provides the visualizer's OpenTelemetry metrics.
//
// Instruments are recorded through the OpenTelemetry Metrics API. [InitProvider]
// bridges them to a Prometheus registry so they can be scraped from /metrics
// when a metrics address is configured. Tests should build [Metrics] with
// [NewMetrics] and their own [metric.MeterProvider].
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all visualizer metrics.
const meterName = "github.com/tbrumbaugh5396/music-visualizer"

// Metrics holds the tick pipeline instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	// TickDuration tracks how long one pipeline tick takes, from frame pull
	// to primitive list. Use with attribute.String("mode", ...).
	TickDuration metric.Float64Histogram

	// Ticks counts completed ticks. Use with attribute.String("mode", ...).
	Ticks metric.Int64Counter

	// TicksSkipped counts ticks dropped because the previous one was still running.
	TicksSkipped metric.Int64Counter

	// HeldFrames counts ticks that reused the previous band set because the
	// source had no frame ready.
	HeldFrames metric.Int64Counter

	// InvariantViolations counts non-finite values clamped in lenient mode.
	// Use with attribute.String("stage", ...).
	InvariantViolations metric.Int64Counter

	// ModeChanges counts visualization mode switches.
	// Use with attribute.String("mode", ...).
	ModeChanges metric.Int64Counter
}

// tickBuckets are histogram boundaries in seconds, sized around a 50ms refresh.
var tickBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.025, 0.05, 0.1, 0.25,
}

// NewMetrics creates a [Metrics] using mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TickDuration, err = m.Float64Histogram("musicviz.tick.duration",
		metric.WithDescription("Latency of one visualization tick."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(tickBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Ticks, err = m.Int64Counter("musicviz.ticks",
		metric.WithDescription("Total completed ticks by mode."),
	); err != nil {
		return nil, err
	}
	if met.TicksSkipped, err = m.Int64Counter("musicviz.ticks.skipped",
		metric.WithDescription("Ticks dropped while a previous tick was in progress."),
	); err != nil {
		return nil, err
	}
	if met.HeldFrames, err = m.Int64Counter("musicviz.frames.held",
		metric.WithDescription("Ticks that held the previous band set."),
	); err != nil {
		return nil, err
	}
	if met.InvariantViolations, err = m.Int64Counter("musicviz.invariant.violations",
		metric.WithDescription("Non-finite values clamped by stage."),
	); err != nil {
		return nil, err
	}
	if met.ModeChanges, err = m.Int64Counter("musicviz.mode.changes",
		metric.WithDescription("Visualization mode switches by target mode."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordTick records one completed tick in mode.
func (m *Metrics) RecordTick(ctx context.Context, mode string, d time.Duration, held bool) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.TickDuration.Record(ctx, d.Seconds(), attrs)
	m.Ticks.Add(ctx, 1, attrs)
	if held {
		m.HeldFrames.Add(ctx, 1)
	}
}

// RecordSkip records a dropped tick.
func (m *Metrics) RecordSkip(ctx context.Context) {
	m.TicksSkipped.Add(ctx, 1)
}

// RecordViolations records n clamped values in stage.
func (m *Metrics) RecordViolations(ctx context.Context, stage string, n uint64) {
	if n == 0 {
		return
	}
	m.InvariantViolations.Add(ctx, int64(n), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordModeChange records a switch to mode.
func (m *Metrics) RecordModeChange(ctx context.Context, mode string) {
	m.ModeChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], built on first call from
// [otel.GetMeterProvider]. Panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}
