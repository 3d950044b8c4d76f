// Package device implements the journaling undo block device.
//
// A Device intercepts every write to its block store, captures the pre-write
// image of the affected sectors into the journal, and can roll the store back
// to any registered snapshot by replaying journal pre-images in reverse.
package device

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/undoblk/undoblk/internal/blockstore"
	"github.com/undoblk/undoblk/internal/journal"
	"github.com/undoblk/undoblk/internal/messaging"
	"github.com/undoblk/undoblk/internal/signaling"
	"github.com/undoblk/undoblk/internal/snapshot"
	"github.com/undoblk/undoblk/internal/telemetry"
)

const (
	// DefaultCapacitySectors is the default device capacity (64 MiB).
	DefaultCapacitySectors = 64 * 1024 * 1024 / blockstore.SectorSize

	// DefaultJournalEntries is the default journal capacity.
	DefaultJournalEntries = 1024

	// DefaultMaxSnapshots is the default snapshot registry capacity.
	DefaultMaxSnapshots = 64
)

// rollbackQueueSize bounds the number of rollback requests that may be
// pending behind an in-flight rollback.
const rollbackQueueSize = 16

// A Device is a block device with journaled undo.
//
// The configuration fields must not be modified after the device is first
// used. The zero value is a usable device with the default geometry.
type Device struct {
	// ID uniquely identifies this device instance. A random ID is assigned
	// on first use if none is set.
	ID uuid.UUID

	// Capacity is the device capacity in sectors.
	Capacity uint64

	// JournalEntries is the maximum number of journal entries.
	JournalEntries int

	// MaxSnapshots is the maximum number of registered snapshots.
	MaxSnapshots int

	// Telemetry is the source of the device's traces, metrics and logs.
	Telemetry *telemetry.Provider

	init      sync.Once
	store     *blockstore.Store
	journal   *journal.Journal
	snapshots *snapshot.Registry
	logger    *slog.Logger

	// mu is the journal mutex: it guards the journal, the snapshot registry
	// and the degraded flag, and serializes the capture-then-mutate write
	// path so that every pre-image reflects the sector state immediately
	// before its write.
	mu       sync.Mutex
	degraded bool

	// gate excludes live I/O during a rollback. Dispatch paths hold it
	// shared; the rollback worker holds it exclusively for the full replay.
	gate sync.RWMutex

	rollbacks messaging.RequestQueue[rollbackRequest]
	shutdown  signaling.Latch

	metrics struct {
		reads            metric.Int64Counter
		writes           metric.Int64Counter
		preimages        metric.Int64Counter
		droppedEntries   metric.Int64Counter
		snapshots        metric.Int64Counter
		rollbacks        metric.Int64Counter
		checksumMismatch metric.Int64Counter
		degraded         metric.Int64UpDownCounter
	}
}

func (d *Device) ensure() {
	d.init.Do(func() {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		if d.Capacity == 0 {
			d.Capacity = DefaultCapacitySectors
		}
		if d.JournalEntries == 0 {
			d.JournalEntries = DefaultJournalEntries
		}
		if d.MaxSnapshots == 0 {
			d.MaxSnapshots = DefaultMaxSnapshots
		}

		d.store = blockstore.New(d.Capacity)
		d.journal = journal.New(d.JournalEntries)
		d.snapshots = snapshot.New(d.MaxSnapshots)
		d.rollbacks.Size = rollbackQueueSize

		r := d.Telemetry.Recorder("device")
		d.logger = r.Logger.With(slog.String("device_id", d.ID.String()))

		d.metrics.reads = r.Counter("undoblk.device.reads", "{request}", "The number of read requests served.")
		d.metrics.writes = r.Counter("undoblk.device.writes", "{request}", "The number of write requests served.")
		d.metrics.preimages = r.Counter("undoblk.journal.preimages", "{entry}", "The number of pre-write images captured into the journal.")
		d.metrics.droppedEntries = r.Counter("undoblk.journal.dropped", "{entry}", "The number of pre-write images dropped because the journal was full.")
		d.metrics.snapshots = r.Counter("undoblk.snapshots.created", "{snapshot}", "The number of snapshots created.")
		d.metrics.rollbacks = r.Counter("undoblk.rollbacks.completed", "{rollback}", "The number of completed rollbacks.")
		d.metrics.checksumMismatch = r.Counter("undoblk.rollbacks.checksum_mismatches", "{entry}", "The number of journal entries whose checksum did not match during replay.")
		d.metrics.degraded = r.UpDownCounter("undoblk.journal.degraded", "{device}", "Whether the device has lost undo capability because the journal is full.")
	})
}

// SectorSize returns the device's sector size, in bytes.
func (d *Device) SectorSize() uint64 {
	return blockstore.SectorSize
}

// Degraded reports whether the device has lost undo capability for some
// writes because the journal filled up.
func (d *Device) Degraded() bool {
	d.ensure()

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.degraded
}

// Status is a point-in-time summary of the device's state.
type Status struct {
	ID               uuid.UUID
	CapacitySectors  uint64
	CapacityBytes    uint64
	JournalEntries   int
	JournalCapacity  int
	Snapshots        int
	SnapshotCapacity int
	Sequence         uint64
	Degraded         bool
	Fingerprint      uint64
}

// Status returns a summary of the device's state.
func (d *Device) Status() Status {
	d.ensure()

	d.mu.Lock()
	defer d.mu.Unlock()

	return Status{
		ID:               d.ID,
		CapacitySectors:  d.store.Capacity(),
		CapacityBytes:    d.store.Size(),
		JournalEntries:   d.journal.Len(),
		JournalCapacity:  d.journal.Capacity(),
		Snapshots:        d.snapshots.Len(),
		SnapshotCapacity: d.snapshots.Capacity(),
		Sequence:         d.journal.Sequence(),
		Degraded:         d.degraded,
		Fingerprint:      d.store.Fingerprint(),
	}
}

// SnapshotList returns the registered snapshots in creation order.
func (d *Device) SnapshotList() []snapshot.Snapshot {
	d.ensure()

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.snapshots.All()
}

// JournalEntryList returns the live journal entries in append order.
func (d *Device) JournalEntryList() []*journal.Entry {
	d.ensure()

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.journal.Entries()
}
