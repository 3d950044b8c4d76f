package journal

import (
	"hash/crc32"
	"time"

	"github.com/pierrec/lz4/v4"
)

// Kind enumerates the kinds of journal entry.
type Kind int

const (
	// Write records the pre-image of a range of sectors, captured
	// immediately before the write that mutated them.
	Write Kind = iota + 1

	// SnapshotMarker records the creation of a snapshot.
	SnapshotMarker

	// CommitMarker records an explicit commit point.
	CommitMarker

	// RollbackMarker records a completed rollback.
	RollbackMarker
)

// String returns the kind's name as it appears in the journal view.
func (k Kind) String() string {
	switch k {
	case Write:
		return "WRITE"
	case SnapshotMarker:
		return "SNAPSHOT"
	case CommitMarker:
		return "COMMIT"
	case RollbackMarker:
		return "ROLLBACK"
	default:
		return "UNKNOWN"
	}
}

// An Entry is a single record in the journal.
//
// Entries are immutable once appended.
type Entry struct {
	// Kind is the kind of the entry.
	Kind Kind

	// Sequence is the entry's position in the global event timeline. It is
	// assigned at append time and is strictly increasing across all entry
	// kinds.
	Sequence uint64

	// Timestamp is the wall-clock time at which the entry was appended.
	Timestamp time.Time

	// Sector and SectorCount describe the affected range for Write entries.
	// They are zero for markers.
	Sector      uint64
	SectorCount uint64

	// Checksum is the CRC-32 of the entry's payload, computed at append
	// time. It is zero for markers.
	Checksum uint32

	payload    []byte // lz4 block, or raw when compression did not help
	rawLen     int
	compressed bool
}

// Payload returns the entry's pre-image, decompressing it if necessary.
//
// It returns nil for marker entries.
func (e *Entry) Payload() ([]byte, error) {
	if e.payload == nil {
		return nil, nil
	}

	buf := make([]byte, e.rawLen)

	if !e.compressed {
		copy(buf, e.payload)
		return buf, nil
	}

	n, err := lz4.UncompressBlock(e.payload, buf)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	return buf[:n], nil
}

// Checksum returns the integrity checksum of p.
func Checksum(p []byte) uint32 {
	return crc32.ChecksumIEEE(p)
}

// encodePayload stores p as an lz4 block, falling back to a raw copy when p
// is incompressible.
func encodePayload(p []byte) (payload []byte, compressed bool) {
	buf := make([]byte, lz4.CompressBlockBound(len(p)))

	var c lz4.Compressor
	n, err := c.CompressBlock(p, buf)

	if err != nil || n == 0 || n >= len(p) {
		raw := make([]byte, len(p))
		copy(raw, p)
		return raw, false
	}

	return buf[:n:n], true
}
