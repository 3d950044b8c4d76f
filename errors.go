package undoblk

import (
	"github.com/undoblk/undoblk/internal/blockstore"
	"github.com/undoblk/undoblk/internal/journal"
	"github.com/undoblk/undoblk/internal/snapshot"
)

var (
	// ErrOutOfRange indicates that an I/O request extends beyond the
	// device's capacity or is not sector-aligned.
	ErrOutOfRange = blockstore.ErrOutOfRange

	// ErrJournalFull indicates that the journal has no room for another
	// entry.
	ErrJournalFull = journal.ErrFull

	// ErrTooManySnapshots indicates that the snapshot registry is full.
	ErrTooManySnapshots = snapshot.ErrTooMany

	// ErrSnapshotNotFound indicates that no snapshot exists with the
	// requested ID.
	ErrSnapshotNotFound = snapshot.ErrNotFound
)
