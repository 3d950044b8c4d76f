package undoblk

import (
	"log/slog"
	"net"

	"github.com/google/uuid"
	"github.com/undoblk/undoblk/internal/blockstore"
	"github.com/undoblk/undoblk/internal/engineconfig"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// FerriteRegistry is a registry of the environment variables used by undoblk.
//
// It can be used with the [ferrite] package.
var FerriteRegistry = engineconfig.FerriteRegistry

// An EngineOption configures the behavior of an [Engine].
type EngineOption func(*engineconfig.Config)

// WithOptionsFromEnvironment is an engine option that configures the engine
// using options specified via environment variables.
//
// Any explicit options passed to [New] take precedence over options from the
// environment.
func WithOptionsFromEnvironment() EngineOption {
	return func(cfg *engineconfig.Config) {
		cfg.UseEnv = true
	}
}

// WithDeviceID is an [EngineOption] that sets the device's unique identifier.
func WithDeviceID(id uuid.UUID) EngineOption {
	if id == uuid.Nil {
		panic("device ID must not be nil")
	}

	return func(cfg *engineconfig.Config) {
		cfg.DeviceID = id
	}
}

// WithCapacity is an [EngineOption] that sets the capacity of the device, in
// bytes. It must be a multiple of the 512-byte sector size.
func WithCapacity(n uint64) EngineOption {
	if n == 0 || n%blockstore.SectorSize != 0 {
		panic("capacity must be a non-zero multiple of the 512-byte sector size")
	}

	return func(cfg *engineconfig.Config) {
		cfg.Device.CapacitySectors = n / blockstore.SectorSize
	}
}

// WithJournalCapacity is an [EngineOption] that sets the maximum number of
// journal entries retained by the device.
func WithJournalCapacity(n int) EngineOption {
	if n <= 0 {
		panic("journal capacity must be positive")
	}

	return func(cfg *engineconfig.Config) {
		cfg.Device.JournalEntries = n
	}
}

// WithSnapshotCapacity is an [EngineOption] that sets the maximum number of
// snapshots retained by the device.
func WithSnapshotCapacity(n int) EngineOption {
	if n <= 0 {
		panic("snapshot capacity must be positive")
	}

	return func(cfg *engineconfig.Config) {
		cfg.Device.MaxSnapshots = n
	}
}

// WithControlListenAddress is an [EngineOption] that sets the network address
// for the engine's control server.
func WithControlListenAddress(addr string) EngineOption {
	return func(cfg *engineconfig.Config) {
		cfg.Control.ListenAddress = addr
	}
}

// WithControlListener is an [EngineOption] that serves the control protocol
// on an existing listener instead of opening one.
func WithControlListener(lis net.Listener) EngineOption {
	if lis == nil {
		panic("listener must not be nil")
	}

	return func(cfg *engineconfig.Config) {
		cfg.Control.Listener = lis
	}
}

// WithLogger is an [EngineOption] that sets the logger used by the engine.
func WithLogger(l *slog.Logger) EngineOption {
	if l == nil {
		panic("logger must not be nil")
	}

	return func(cfg *engineconfig.Config) {
		cfg.Telemetry.Logger = l
	}
}

// WithTracerProvider is an [EngineOption] that sets the OpenTelemetry tracer
// provider used by the engine.
func WithTracerProvider(p trace.TracerProvider) EngineOption {
	if p == nil {
		panic("tracer provider must not be nil")
	}

	return func(cfg *engineconfig.Config) {
		cfg.Telemetry.TracerProvider = p
	}
}

// WithMetricProvider is an [EngineOption] that sets the OpenTelemetry meter
// provider used by the engine.
func WithMetricProvider(p metric.MeterProvider) EngineOption {
	if p == nil {
		panic("metric provider must not be nil")
	}

	return func(cfg *engineconfig.Config) {
		cfg.Telemetry.MeterProvider = p
	}
}
