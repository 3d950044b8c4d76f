package device_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/undoblk/undoblk/internal/blockstore"
	. "github.com/undoblk/undoblk/internal/device"
	"github.com/undoblk/undoblk/internal/journal"
	"github.com/undoblk/undoblk/internal/snapshot"
	"github.com/undoblk/undoblk/internal/test"
)

func fill(b byte, sectors int) []byte {
	return bytes.Repeat([]byte{b}, sectors*blockstore.SectorSize)
}

func TestDevice(t *testing.T) {
	t.Run("it restores the snapshot state on rollback", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 10,
			MaxSnapshots:   4,
		}

		test.
			RunInBackground(t, dev.Run).
			UntilTestEnds()

		// Two writes to sector 5, then a snapshot, then a third write that
		// the rollback must undo.
		if err := dev.WriteSectors(tctx, 5, fill(0x00, 1)); err != nil {
			t.Fatal(err)
		}
		if err := dev.WriteSectors(tctx, 5, fill(0xAA, 1)); err != nil {
			t.Fatal(err)
		}

		id, err := dev.CreateSnapshot(tctx, "S1")
		if err != nil {
			t.Fatal(err)
		}

		snap, err := dev.Snapshot(id)
		if err != nil {
			t.Fatal(err)
		}
		if snap.JournalSequence != 2 {
			t.Fatalf("unexpected snapshot sequence: got %d, want 2", snap.JournalSequence)
		}

		if err := dev.WriteSectors(tctx, 5, fill(0xBB, 1)); err != nil {
			t.Fatal(err)
		}

		if err := dev.RollbackSync(tctx, id); err != nil {
			t.Fatal(err)
		}

		got, err := dev.ReadSectors(tctx, 5, 1)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, fill(0xAA, 1)) {
			t.Fatal("rollback did not restore the snapshot's sector contents")
		}

		// Everything newer than the snapshot is gone; the only entry above
		// the target sequence is the rollback marker itself.
		entries := dev.JournalEntryList()
		last := entries[len(entries)-1]

		if last.Kind != journal.RollbackMarker {
			t.Fatalf("unexpected final journal entry kind: got %s, want ROLLBACK", last.Kind)
		}

		for _, e := range entries[:len(entries)-1] {
			if e.Sequence > snap.JournalSequence {
				t.Fatalf("entry with sequence %d survived the rollback", e.Sequence)
			}
		}
	})

	t.Run("it undoes repeated writes to the same sector", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 32,
			MaxSnapshots:   4,
		}

		test.
			RunInBackground(t, dev.Run).
			UntilTestEnds()

		if err := dev.WriteSectors(tctx, 7, fill(0x11, 2)); err != nil {
			t.Fatal(err)
		}

		id, err := dev.CreateSnapshot(tctx, "before churn")
		if err != nil {
			t.Fatal(err)
		}

		// Several overlapping writes after the snapshot; only the oldest
		// pre-image in the replay range may win.
		for _, b := range []byte{0x22, 0x33, 0x44, 0x55} {
			if err := dev.WriteSectors(tctx, 7, fill(b, 2)); err != nil {
				t.Fatal(err)
			}
		}

		if err := dev.RollbackSync(tctx, id); err != nil {
			t.Fatal(err)
		}

		got, err := dev.ReadSectors(tctx, 7, 2)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, fill(0x11, 2)) {
			t.Fatal("rollback did not restore the oldest pre-image in the replay range")
		}
	})

	t.Run("it rejects out-of-range I/O without changing state", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 10,
			MaxSnapshots:   4,
		}

		before := dev.Status()

		if _, err := dev.ReadSectors(tctx, 99, 2); !errors.Is(err, blockstore.ErrOutOfRange) {
			t.Fatalf("unexpected error: got %v, want %v", err, blockstore.ErrOutOfRange)
		}

		err := dev.WriteSectors(tctx, 99, fill(0xAA, 2))
		if !errors.Is(err, blockstore.ErrOutOfRange) {
			t.Fatalf("unexpected error: got %v, want %v", err, blockstore.ErrOutOfRange)
		}

		after := dev.Status()

		if after.Fingerprint != before.Fingerprint {
			t.Fatal("store was modified by a rejected request")
		}
		if after.Sequence != before.Sequence {
			t.Fatal("a rejected request was journaled")
		}
	})

	t.Run("writes proceed without undo protection when the journal is full", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 2,
			MaxSnapshots:   4,
		}

		for _, b := range []byte{0x01, 0x02, 0x03} {
			if err := dev.WriteSectors(tctx, 0, fill(b, 1)); err != nil {
				t.Fatal(err)
			}
		}

		if !dev.Degraded() {
			t.Fatal("expected the device to report degraded undo protection")
		}

		// The third write was applied even though it could not be journaled.
		got, err := dev.ReadSectors(tctx, 0, 1)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, fill(0x03, 1)) {
			t.Fatal("unjournaled write was not applied")
		}

		if n := len(dev.JournalEntryList()); n != 2 {
			t.Fatalf("unexpected journal length: got %d, want 2", n)
		}
	})

	t.Run("rollback clears the degraded state when journal capacity is freed", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 3,
			MaxSnapshots:   4,
		}

		test.
			RunInBackground(t, dev.Run).
			UntilTestEnds()

		id, err := dev.CreateSnapshot(tctx, "S0")
		if err != nil {
			t.Fatal(err)
		}

		for _, b := range []byte{0x01, 0x02, 0x03} {
			if err := dev.WriteSectors(tctx, 0, fill(b, 1)); err != nil {
				t.Fatal(err)
			}
		}

		if !dev.Degraded() {
			t.Fatal("expected the device to report degraded undo protection")
		}

		if err := dev.RollbackSync(tctx, id); err != nil {
			t.Fatal(err)
		}

		if dev.Degraded() {
			t.Fatal("expected the rollback to restore undo protection")
		}
	})

	t.Run("snapshot creation is transactional when the journal is full", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 1,
			MaxSnapshots:   4,
		}

		if err := dev.WriteSectors(tctx, 0, fill(0x01, 1)); err != nil {
			t.Fatal(err)
		}

		if _, err := dev.CreateSnapshot(tctx, "S0"); !errors.Is(err, journal.ErrFull) {
			t.Fatalf("unexpected error: got %v, want %v", err, journal.ErrFull)
		}

		if n := len(dev.SnapshotList()); n != 0 {
			t.Fatalf("a snapshot was registered without its journal marker: %d registered", n)
		}
	})

	t.Run("it limits the number of snapshots", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 10,
			MaxSnapshots:   1,
		}

		if _, err := dev.CreateSnapshot(tctx, "S0"); err != nil {
			t.Fatal(err)
		}

		if _, err := dev.CreateSnapshot(tctx, "S1"); !errors.Is(err, snapshot.ErrTooMany) {
			t.Fatalf("unexpected error: got %v, want %v", err, snapshot.ErrTooMany)
		}
	})

	t.Run("rollback to an unknown snapshot fails synchronously", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 10,
			MaxSnapshots:   4,
		}

		if err := dev.Rollback(tctx, 3); !errors.Is(err, snapshot.ErrNotFound) {
			t.Fatalf("unexpected error: got %v, want %v", err, snapshot.ErrNotFound)
		}
	})

	t.Run("queued rollbacks are acknowledged before they complete", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 10,
			MaxSnapshots:   4,
		}

		test.
			RunInBackground(t, dev.Run).
			UntilTestEnds()

		if err := dev.WriteSectors(tctx, 3, fill(0x77, 1)); err != nil {
			t.Fatal(err)
		}

		id, err := dev.CreateSnapshot(tctx, "S0")
		if err != nil {
			t.Fatal(err)
		}

		if err := dev.WriteSectors(tctx, 3, fill(0x88, 1)); err != nil {
			t.Fatal(err)
		}

		if err := dev.Rollback(tctx, id); err != nil {
			t.Fatal(err)
		}

		// The rollback happens asynchronously; wait for its effect.
		for {
			got, err := dev.ReadSectors(tctx, 3, 1)
			if err != nil {
				t.Fatal(err)
			}
			if bytes.Equal(got, fill(0x77, 1)) {
				break
			}

			select {
			case <-tctx.Done():
				t.Fatalf("queued rollback never completed: %s", tctx.Err())
			case <-time.After(time.Millisecond):
			}
		}
	})

	t.Run("commit markers appear in the journal timeline", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 10,
			MaxSnapshots:   4,
		}

		seq, err := dev.Commit(tctx)
		if err != nil {
			t.Fatal(err)
		}

		entries := dev.JournalEntryList()
		if len(entries) != 1 {
			t.Fatalf("unexpected journal length: got %d, want 1", len(entries))
		}
		if entries[0].Kind != journal.CommitMarker || entries[0].Sequence != seq {
			t.Fatalf("unexpected journal entry: kind %s, sequence %d", entries[0].Kind, entries[0].Sequence)
		}
	})

	t.Run("it reports its status", func(t *testing.T) {
		t.Parallel()

		tctx := test.WithContext(t)

		dev := &Device{
			Capacity:       100,
			JournalEntries: 10,
			MaxSnapshots:   4,
		}

		if err := dev.WriteSectors(tctx, 0, fill(0x01, 1)); err != nil {
			t.Fatal(err)
		}

		status := dev.Status()

		test.Expect(t, status.CapacitySectors, uint64(100))
		test.Expect(t, status.CapacityBytes, uint64(100*blockstore.SectorSize))
		test.Expect(t, status.JournalEntries, 1)
		test.Expect(t, status.JournalCapacity, 10)
		test.Expect(t, status.Snapshots, 0)
		test.Expect(t, status.SnapshotCapacity, 4)
		test.Expect(t, status.Sequence, uint64(1))
		test.Expect(t, status.Degraded, false)
	})
}
