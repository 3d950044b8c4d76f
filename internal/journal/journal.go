// Package journal implements the append-only undo journal.
//
// The journal is a bounded, ordered sequence of entries capturing sector
// pre-images and structural markers. Every successful append consumes the
// next value of a global sequence counter, so sequence numbers are comparable
// across entry kinds.
package journal

import (
	"time"

	"github.com/zeebo/errs"
)

// Error is the class of all journal errors.
var Error = errs.Class("journal")

// ErrFull is returned by [Journal.Append] when the journal already holds its
// maximum number of entries. The journal never evicts entries implicitly.
var ErrFull = Error.New("journal is full")

// A Journal is a bounded append-only sequence of entries.
//
// It is not safe for concurrent use; the owning device serializes access
// under its journal mutex.
type Journal struct {
	capacity int
	seq      uint64
	entries  []*Entry
}

// New returns an empty journal that holds at most capacity entries.
func New(capacity int) *Journal {
	return &Journal{
		capacity: capacity,
	}
}

// Append adds an entry to the end of the journal and returns the sequence
// number it was assigned.
//
// payload is the raw pre-image for [Write] entries; it is copied (and
// compressed, when that helps) before Append returns, and its checksum is
// computed from the raw bytes. Markers carry no payload.
//
// It returns [ErrFull], without assigning a sequence number, when the journal
// is at capacity.
func (j *Journal) Append(kind Kind, sector, count uint64, payload []byte) (uint64, error) {
	if len(j.entries) >= j.capacity {
		return 0, ErrFull
	}

	j.seq++

	e := &Entry{
		Kind:      kind,
		Sequence:  j.seq,
		Timestamp: time.Now(),
	}

	if kind == Write {
		e.Sector = sector
		e.SectorCount = count
		e.Checksum = Checksum(payload)
		e.rawLen = len(payload)
		e.payload, e.compressed = encodePayload(payload)
	}

	j.entries = append(j.entries, e)

	return j.seq, nil
}

// Sequence returns the journal's current sequence watermark: the sequence
// number most recently assigned by Append, or restored by TruncateAfter.
func (j *Journal) Sequence() uint64 {
	return j.seq
}

// Len returns the number of live entries.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Capacity returns the maximum number of entries the journal can hold.
func (j *Journal) Capacity() int {
	return j.capacity
}

// Entries returns the live entries in append order.
//
// The returned slice is a copy; the entries it points to are immutable.
func (j *Journal) Entries() []*Entry {
	entries := make([]*Entry, len(j.entries))
	copy(entries, j.entries)
	return entries
}

// ReverseFrom returns the entries with a sequence number strictly greater
// than bound, most recent first.
//
// It does not mutate the journal and may be called repeatedly with the same
// bound.
func (j *Journal) ReverseFrom(bound uint64) []*Entry {
	var entries []*Entry

	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		if e.Sequence <= bound {
			break
		}
		entries = append(entries, e)
	}

	return entries
}

// TruncateAfter removes every entry with a sequence number strictly greater
// than bound and resets the sequence watermark to bound. It returns the
// number of entries removed.
//
// It is used after a successful rollback to discard now-obsolete history.
func (j *Journal) TruncateAfter(bound uint64) int {
	keep := len(j.entries)
	for keep > 0 && j.entries[keep-1].Sequence > bound {
		keep--
	}

	removed := len(j.entries) - keep

	for i := keep; i < len(j.entries); i++ {
		j.entries[i] = nil
	}
	j.entries = j.entries[:keep]

	if bound < j.seq {
		j.seq = bound
	}

	return removed
}
