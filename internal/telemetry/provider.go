// Package telemetry provides traces, metrics and logs for the device's
// subsystems.
package telemetry

import (
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// Provider provides Recorder instances scoped to particular subsystems.
//
// The zero value of a *Provider is equivalent to a provider configured with
// no-op tracer and meter providers and the default logger.
type Provider struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Logger         *slog.Logger
	Attrs          []attribute.KeyValue
}

// Recorder returns a new Recorder for the named subsystem.
func (p *Provider) Recorder(subsystem string) *Recorder {
	const pkg = "github.com/undoblk/undoblk/"

	var (
		tracerProvider trace.TracerProvider
		meterProvider  metric.MeterProvider
		logger         *slog.Logger
		attrs          []attribute.KeyValue
	)

	if p != nil {
		tracerProvider = p.TracerProvider
		meterProvider = p.MeterProvider
		logger = p.Logger
		attrs = p.Attrs
	}

	if tracerProvider == nil {
		tracerProvider = nooptrace.NewTracerProvider()
	}

	if meterProvider == nil {
		meterProvider = noopmetric.NewMeterProvider()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		Tracer: tracerProvider.Tracer(
			pkg+subsystem,
			trace.WithInstrumentationAttributes(attrs...),
		),
		Meter: meterProvider.Meter(
			pkg+subsystem,
			metric.WithInstrumentationAttributes(attrs...),
		),
		Logger: logger.With(slog.String("subsystem", subsystem)),
	}
}
