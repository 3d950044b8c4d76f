// Package undoblk implements an in-memory block device that journals sector
// pre-images so that its contents can be rolled back to named snapshots.
package undoblk

import (
	"context"

	"github.com/undoblk/undoblk/internal/control"
	"github.com/undoblk/undoblk/internal/device"
	"github.com/undoblk/undoblk/internal/engineconfig"
	"golang.org/x/sync/errgroup"
)

// Engine hosts an undo block device and its control server.
type Engine struct {
	device *device.Device
	server *control.Server
}

// New returns an engine that hosts a single device.
func New(options ...EngineOption) *Engine {
	cfg := engineconfig.New(options)

	dev := &device.Device{
		ID:             cfg.DeviceID,
		Capacity:       cfg.Device.CapacitySectors,
		JournalEntries: cfg.Device.JournalEntries,
		MaxSnapshots:   cfg.Device.MaxSnapshots,
		Telemetry:      cfg.Telemetry,
	}

	return &Engine{
		device: dev,
		server: &control.Server{
			Device:        dev,
			Listener:      cfg.Control.Listener,
			ListenAddress: cfg.Control.ListenAddress,
			Telemetry:     cfg.Telemetry,
		},
	}
}

// Run starts the device's rollback worker and the control server.
//
// It blocks until ctx is canceled or an error occurs.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.device.Run(ctx)
	})

	g.Go(func() error {
		return e.server.Run(ctx)
	})

	return g.Wait()
}

// ReadSectors reads count sectors starting at the given sector.
func (e *Engine) ReadSectors(ctx context.Context, sector, count uint64) ([]byte, error) {
	return e.device.ReadSectors(ctx, sector, count)
}

// WriteSectors writes sector-aligned data starting at the given sector,
// journaling the overwritten content first.
func (e *Engine) WriteSectors(ctx context.Context, sector uint64, data []byte) error {
	return e.device.WriteSectors(ctx, sector, data)
}

// CreateSnapshot registers a named restore point at the device's current
// journal position and returns its ID.
func (e *Engine) CreateSnapshot(ctx context.Context, description string) (int, error) {
	return e.device.CreateSnapshot(ctx, description)
}

// Rollback queues a rollback to the snapshot with the given ID. It returns
// once the rollback has been accepted, not once it has completed.
func (e *Engine) Rollback(ctx context.Context, id int) error {
	return e.device.Rollback(ctx, id)
}

// RollbackSync rolls the device back to the snapshot with the given ID and
// blocks until the rollback has completed.
func (e *Engine) RollbackSync(ctx context.Context, id int) error {
	return e.device.RollbackSync(ctx, id)
}

// Commit records a durability marker at the device's current journal
// position and returns the marker's sequence number.
func (e *Engine) Commit(ctx context.Context) (uint64, error) {
	return e.device.Commit(ctx)
}

// Degraded reports whether writes have been applied without journaling
// because the journal is full.
func (e *Engine) Degraded() bool {
	return e.device.Degraded()
}
