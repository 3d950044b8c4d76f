package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/undoblk/undoblk/internal/journal"
	"github.com/undoblk/undoblk/internal/snapshot"
)

// CreateSnapshot registers a snapshot of the device's current state and
// returns its ID.
//
// The snapshot references the journal's current sequence number; rolling back
// to it restores the device to the state it has at this moment. A
// SnapshotMarker entry is appended to record the event in the journal
// timeline.
//
// Snapshot creation is transactional: if the marker cannot be appended
// (journal full) no snapshot is registered and the error is returned. If the
// description is empty a default one is generated.
func (d *Device) CreateSnapshot(ctx context.Context, description string) (int, error) {
	d.ensure()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.snapshots.Full() {
		return 0, snapshot.ErrTooMany
	}

	if description == "" {
		description = fmt.Sprintf("Snapshot %d", d.snapshots.Len())
	}

	snap := snapshot.Snapshot{
		Timestamp:       time.Now(),
		JournalSequence: d.journal.Sequence(),
		Description:     description,
	}

	// The marker is appended before the snapshot is registered; the registry
	// was verified non-full above, so registration cannot fail afterwards.
	if _, err := d.journal.Append(journal.SnapshotMarker, 0, 0, nil); err != nil {
		return 0, err
	}

	id, err := d.snapshots.Add(snap)
	if err != nil {
		return 0, err
	}

	d.metrics.snapshots.Add(ctx, 1)

	d.logger.InfoContext(
		ctx,
		"created snapshot",
		slog.Int("snapshot_id", id),
		slog.String("description", snap.Description),
		slog.Uint64("journal_sequence", snap.JournalSequence),
	)

	return id, nil
}

// Snapshot returns the snapshot with the given ID.
func (d *Device) Snapshot(id int) (snapshot.Snapshot, error) {
	d.ensure()

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.snapshots.Get(id)
}

// Commit appends a CommitMarker to the journal timeline and returns the
// sequence number it was assigned.
func (d *Device) Commit(ctx context.Context) (uint64, error) {
	d.ensure()

	d.mu.Lock()
	defer d.mu.Unlock()

	seq, err := d.journal.Append(journal.CommitMarker, 0, 0, nil)
	if err != nil {
		return 0, err
	}

	d.logger.InfoContext(
		ctx,
		"recorded commit marker",
		slog.Uint64("journal_sequence", seq),
	)

	return seq, nil
}
