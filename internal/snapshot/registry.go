// Package snapshot implements the registry of named device checkpoints.
package snapshot

import (
	"time"

	"github.com/zeebo/errs"
)

// DescriptionLimit is the maximum length of a snapshot description, in bytes.
// Longer descriptions are truncated.
const DescriptionLimit = 64

// Error is the class of all snapshot registry errors.
var Error = errs.Class("snapshot")

var (
	// ErrTooMany is returned when the registry is at capacity.
	ErrTooMany = Error.New("maximum number of snapshots reached")

	// ErrNotFound is returned when a snapshot ID does not refer to a
	// registered snapshot.
	ErrNotFound = Error.New("no such snapshot")
)

// A Snapshot is a named checkpoint referencing a journal sequence number.
//
// Rolling back to the snapshot restores the device to a state equivalent to
// having replayed all journal entries up through JournalSequence.
type Snapshot struct {
	Timestamp       time.Time
	JournalSequence uint64
	Description     string
}

// A Registry is an ordered, bounded collection of snapshots.
//
// Snapshots are addressed by their zero-based position in creation order.
// Like the journal, it is not safe for concurrent use; the owning device
// serializes access.
type Registry struct {
	capacity  int
	snapshots []Snapshot
}

// New returns an empty registry that holds at most capacity snapshots.
func New(capacity int) *Registry {
	return &Registry{
		capacity: capacity,
	}
}

// Add registers a snapshot and returns its ID.
//
// It returns [ErrTooMany] when the registry is at capacity. Snapshot
// descriptions longer than [DescriptionLimit] are truncated.
func (r *Registry) Add(s Snapshot) (int, error) {
	if len(r.snapshots) >= r.capacity {
		return 0, ErrTooMany
	}

	if len(s.Description) > DescriptionLimit {
		s.Description = s.Description[:DescriptionLimit]
	}

	r.snapshots = append(r.snapshots, s)

	return len(r.snapshots) - 1, nil
}

// Get returns the snapshot with the given ID.
//
// It returns [ErrNotFound] if id is out of range.
func (r *Registry) Get(id int) (Snapshot, error) {
	if id < 0 || id >= len(r.snapshots) {
		return Snapshot{}, ErrNotFound
	}

	return r.snapshots[id], nil
}

// Len returns the number of registered snapshots.
func (r *Registry) Len() int {
	return len(r.snapshots)
}

// Capacity returns the maximum number of snapshots the registry can hold.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Full reports whether the registry is at capacity.
func (r *Registry) Full() bool {
	return len(r.snapshots) >= r.capacity
}

// All returns the registered snapshots in creation order.
func (r *Registry) All() []Snapshot {
	snapshots := make([]Snapshot, len(r.snapshots))
	copy(snapshots, r.snapshots)
	return snapshots
}
