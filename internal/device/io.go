package device

import (
	"context"
	"errors"
	"log/slog"

	"github.com/undoblk/undoblk/internal/blockstore"
	"github.com/undoblk/undoblk/internal/journal"
)

// ReadSectors returns the contents of count sectors beginning at sector.
//
// Reads are not journaled.
func (d *Device) ReadSectors(ctx context.Context, sector, count uint64) ([]byte, error) {
	d.ensure()

	d.gate.RLock()
	defer d.gate.RUnlock()

	buf, err := d.store.ReadAt(sector, count)
	if err != nil {
		return nil, err
	}

	d.metrics.reads.Add(ctx, 1)

	return buf, nil
}

// WriteSectors overwrites whole sectors beginning at sector with data,
// capturing the pre-write image of the affected range into the journal first.
//
// If the journal is full the pre-image is dropped and the write still
// proceeds: the device degrades to a plain block store rather than refusing
// I/O, but it loses the ability to undo the affected writes. The degradation
// is logged and surfaced via [Device.Degraded] and the journal metrics.
func (d *Device) WriteSectors(ctx context.Context, sector uint64, data []byte) error {
	d.ensure()

	if len(data)%blockstore.SectorSize != 0 {
		return blockstore.Error.New("write of %d bytes is not sector aligned", len(data))
	}
	count := uint64(len(data)) / blockstore.SectorSize

	d.gate.RLock()
	defer d.gate.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	// Bounds are checked by the pre-image read, before any state changes.
	pre, err := d.store.ReadAt(sector, count)
	if err != nil {
		return err
	}

	if _, err := d.journal.Append(journal.Write, sector, count, pre); err != nil {
		if !errors.Is(err, journal.ErrFull) {
			return err
		}
		d.noteDroppedEntry(ctx, sector, count)
	} else {
		d.metrics.preimages.Add(ctx, 1)
	}

	if err := d.store.WriteAt(sector, data); err != nil {
		return err
	}

	d.metrics.writes.Add(ctx, 1)

	return nil
}

// noteDroppedEntry records the loss of undo capability for a write that could
// not be journaled. It must be called with d.mu held.
func (d *Device) noteDroppedEntry(ctx context.Context, sector, count uint64) {
	d.metrics.droppedEntries.Add(ctx, 1)

	if !d.degraded {
		d.degraded = true
		d.metrics.degraded.Add(ctx, 1)

		d.logger.WarnContext(
			ctx,
			"journal is full, writes are proceeding without undo protection",
			slog.Uint64("sector", sector),
			slog.Uint64("sector_count", count),
		)

		return
	}

	d.logger.DebugContext(
		ctx,
		"pre-image dropped because the journal is full",
		slog.Uint64("sector", sector),
		slog.Uint64("sector_count", count),
	)
}
