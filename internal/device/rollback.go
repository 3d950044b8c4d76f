package device

import (
	"context"
	"log/slog"

	"github.com/undoblk/undoblk/internal/fsm"
	"github.com/undoblk/undoblk/internal/journal"
	"github.com/undoblk/undoblk/internal/messaging"
	"github.com/undoblk/undoblk/internal/snapshot"
)

// rollbackRequest identifies a snapshot that the worker should roll the
// device back to. The snapshot is resolved before the request is queued so
// that invalid IDs fail synchronously.
type rollbackRequest struct {
	SnapshotID int
	Snapshot   snapshot.Snapshot
}

// Rollback queues a rollback to the given snapshot and returns once the
// request has been accepted.
//
// It returns [snapshot.ErrNotFound] synchronously if id does not refer to a
// registered snapshot. Completion is not signaled; use [Device.RollbackSync]
// to wait for the rollback to finish. Queued rollbacks are processed one at a
// time, in order, by the worker started with [Device.Run].
func (d *Device) Rollback(ctx context.Context, id int) error {
	req, err := d.resolveRollback(id)
	if err != nil {
		return err
	}

	return d.rollbacks.Post(ctx, req)
}

// RollbackSync rolls the device back to the given snapshot and blocks until
// the rollback has completed.
func (d *Device) RollbackSync(ctx context.Context, id int) error {
	req, err := d.resolveRollback(id)
	if err != nil {
		return err
	}

	return d.rollbacks.Do(ctx, req)
}

func (d *Device) resolveRollback(id int) (rollbackRequest, error) {
	d.ensure()

	d.mu.Lock()
	defer d.mu.Unlock()

	snap, err := d.snapshots.Get(id)
	if err != nil {
		return rollbackRequest{}, err
	}

	return rollbackRequest{id, snap}, nil
}

// Run starts the rollback worker.
//
// It processes queued rollback requests serially until ctx is canceled or
// [Device.Shutdown] is called.
func (d *Device) Run(ctx context.Context) error {
	d.ensure()

	d.logger.DebugContext(ctx, "rollback worker started")
	defer d.logger.DebugContext(ctx, "rollback worker stopped")

	return fsm.Start(ctx, d.idleState)
}

// Shutdown stops the rollback worker when it next becomes idle.
func (d *Device) Shutdown() {
	d.shutdown.Signal()
}

// idleState waits for a rollback request or the shutdown signal.
func (d *Device) idleState(ctx context.Context) fsm.Action {
	select {
	case <-ctx.Done():
		return fsm.Fail(ctx.Err())

	case <-d.shutdown.Signaled():
		return fsm.Stop()

	case req := <-d.rollbacks.Recv():
		return fsm.With(req).EnterState(d.rollbackState)
	}
}

// rollbackState performs a single rollback.
//
// A rollback that has begun always runs to completion; failures while
// replaying individual entries are logged and skipped rather than aborting,
// so the worker never stops because of a bad journal entry.
func (d *Device) rollbackState(
	ctx context.Context,
	req messaging.Request[rollbackRequest],
) fsm.Action {
	d.applyRollback(ctx, req.Request)
	req.Ok()

	return fsm.EnterState(d.idleState)
}

// applyRollback restores the device to the state captured by the request's
// snapshot.
//
// It walks the journal in reverse from the newest entry down to (but not
// including) the snapshot's sequence number, copying each Write entry's
// pre-image back into the store. Because later-processed entries are older
// and overwrite unconditionally, the oldest pre-image in the range wins for
// every sector, which is exactly the sector's state at the target sequence.
// It then discards the replayed entries, resets the sequence watermark, and
// records a RollbackMarker.
func (d *Device) applyRollback(ctx context.Context, req rollbackRequest) {
	target := req.Snapshot.JournalSequence

	d.logger.InfoContext(
		ctx,
		"starting rollback",
		slog.Int("snapshot_id", req.SnapshotID),
		slog.String("description", req.Snapshot.Description),
		slog.Uint64("target_sequence", target),
	)

	// Live I/O is excluded for the full duration of the replay.
	d.gate.Lock()
	defer d.gate.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	var restored int

	for _, e := range d.journal.ReverseFrom(target) {
		if e.Kind != journal.Write {
			continue
		}

		p, err := e.Payload()
		if err != nil {
			d.metrics.checksumMismatch.Add(ctx, 1)
			d.logger.WarnContext(
				ctx,
				"journal payload is unreadable, skipping restore of this entry",
				slog.Uint64("sequence", e.Sequence),
				slog.String("error", err.Error()),
			)
			continue
		}

		if journal.Checksum(p) != e.Checksum {
			// Best-effort recovery: the pre-image is restored anyway, since
			// it is the only copy of the sector's prior state.
			d.metrics.checksumMismatch.Add(ctx, 1)
			d.logger.WarnContext(
				ctx,
				"journal entry failed checksum verification, restoring anyway",
				slog.Uint64("sequence", e.Sequence),
				slog.Uint64("sector", e.Sector),
			)
		}

		if err := d.store.WriteAt(e.Sector, p); err != nil {
			d.logger.WarnContext(
				ctx,
				"could not restore sector range",
				slog.Uint64("sequence", e.Sequence),
				slog.Uint64("sector", e.Sector),
				slog.String("error", err.Error()),
			)
			continue
		}

		restored++
	}

	removed := d.journal.TruncateAfter(target)

	if d.degraded && d.journal.Len() < d.journal.Capacity() {
		d.degraded = false
		d.metrics.degraded.Add(ctx, -1)
		d.logger.InfoContext(ctx, "journal capacity restored, undo protection re-enabled")
	}

	if _, err := d.journal.Append(journal.RollbackMarker, 0, 0, nil); err != nil {
		d.logger.WarnContext(
			ctx,
			"could not record rollback marker",
			slog.String("error", err.Error()),
		)
	}

	d.metrics.rollbacks.Add(ctx, 1)

	d.logger.InfoContext(
		ctx,
		"rollback completed",
		slog.Int("snapshot_id", req.SnapshotID),
		slog.Int("entries_restored", restored),
		slog.Int("entries_removed", removed),
		slog.Uint64("journal_sequence", d.journal.Sequence()),
	)
}
