package telemetry

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Recorder records traces, metrics and logs for a particular subsystem.
type Recorder struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger
}

// Counter returns a new monotonic counter instrument.
//
// It panics if the instrument cannot be created; instruments are created at
// configuration time, before the device serves requests.
func (r *Recorder) Counter(name, unit, desc string) metric.Int64Counter {
	c, err := r.Meter.Int64Counter(
		name,
		metric.WithUnit(unit),
		metric.WithDescription(desc),
	)
	if err != nil {
		panic(err)
	}
	return c
}

// UpDownCounter returns a new non-monotonic counter instrument.
//
// It panics under the same conditions as [Recorder.Counter].
func (r *Recorder) UpDownCounter(name, unit, desc string) metric.Int64UpDownCounter {
	c, err := r.Meter.Int64UpDownCounter(
		name,
		metric.WithUnit(unit),
		metric.WithDescription(desc),
	)
	if err != nil {
		panic(err)
	}
	return c
}
