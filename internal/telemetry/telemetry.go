// Package telemetry records lint run metrics through OpenTelemetry.
//
// Instruments are created from the global MeterProvider unless one is
// supplied, so metrics cost nothing until a provider is installed with Setup.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ScopeName is the instrumentation scope for gslint metrics.
const ScopeName = "github.com/dersebi/GoSublime/gslint"

// Outcome classifies how a lint run ended.
type Outcome string

const (
	// OutcomeOK means the linter ran and its diagnostics were committed.
	OutcomeOK Outcome = "ok"
	// OutcomeDisabled means lint_cmd is empty and diagnostics were cleared.
	OutcomeDisabled Outcome = "disabled"
	// OutcomeNotFound means the linter executable could not be resolved.
	OutcomeNotFound Outcome = "linter_missing"
	// OutcomeLaunch means the linter was found but failed to start.
	OutcomeLaunch Outcome = "launch_error"
	// OutcomeTimeout means the linter was killed after lint_process_timeout.
	OutcomeTimeout Outcome = "timeout"
	// OutcomeIOError means the package files could not be collected.
	OutcomeIOError Outcome = "io_error"
	// OutcomeSuperseded means a newer edit arrived before the commit.
	OutcomeSuperseded Outcome = "superseded"
	// OutcomeSkipped means the run had no file to lint or was cancelled.
	OutcomeSkipped Outcome = "skipped"
)

// Metrics holds the lint instruments. A nil *Metrics records nothing.
type Metrics struct {
	runs        metric.Int64Counter
	stale       metric.Int64Counter
	duration    metric.Float64Histogram
	diagnostics metric.Int64Histogram
}

// New creates the instruments from provider.
func New(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(ScopeName)

	runs, err := meter.Int64Counter(
		"gslint.runs",
		metric.WithDescription("Lint runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs counter: %w", err)
	}

	stale, err := meter.Int64Counter(
		"gslint.stale_callbacks",
		metric.WithDescription("Debounce callbacks suppressed because a newer edit arrived"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stale counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"gslint.run.duration",
		metric.WithDescription("Duration of lint runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	diagnostics, err := meter.Int64Histogram(
		"gslint.run.diagnostics",
		metric.WithDescription("Diagnostics stored per lint run"),
	)
	if err != nil {
		return nil, fmt.Errorf("create diagnostics histogram: %w", err)
	}

	return &Metrics{
		runs:        runs,
		stale:       stale,
		duration:    duration,
		diagnostics: diagnostics,
	}, nil
}

//nolint:gochecknoglobals // Process-wide instruments, created once.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns instruments bound to the global MeterProvider. The global
// provider delegates, so installing a provider later still takes effect.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := New(otel.GetMeterProvider())
		if err != nil {
			m, _ = New(noop.NewMeterProvider())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, outcome Outcome, elapsed time.Duration, diagnostics int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	if outcome == OutcomeOK {
		m.diagnostics.Record(ctx, int64(diagnostics))
	}
}

// RecordStale records a superseded debounce callback.
func (m *Metrics) RecordStale(ctx context.Context) {
	if m == nil {
		return
	}
	m.stale.Add(ctx, 1)
}

// Setup installs a global MeterProvider that writes metrics to w as JSON
// at the given interval and once more on shutdown.
func Setup(w io.Writer, interval time.Duration) (func(context.Context) error, error) {
	exporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(w),
		stdoutmetric.WithoutTimestamps(),
	)
	if err != nil {
		return nil, fmt.Errorf("create stdout metric exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}
