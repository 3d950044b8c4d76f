package blockstore

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/errs"
)

// SectorSize is the size of a device sector, in bytes.
const SectorSize = 512

// Error is the class of all block store errors.
var Error = errs.Class("blockstore")

// ErrOutOfRange is returned when a request addresses sectors beyond the
// device's capacity.
var ErrOutOfRange = Error.New("sector range is beyond device capacity")

// Store is a fixed-capacity array of sectors.
//
// It performs no journaling of its own; callers are responsible for capturing
// pre-images before calling [Store.WriteAt].
type Store struct {
	mu   sync.Mutex
	data []byte
}

// New returns a store with capacity for n sectors, all zeroed.
func New(n uint64) *Store {
	return &Store{
		data: make([]byte, n*SectorSize),
	}
}

// Capacity returns the store's capacity, in sectors.
func (s *Store) Capacity() uint64 {
	return uint64(len(s.data)) / SectorSize
}

// Size returns the store's capacity, in bytes.
func (s *Store) Size() uint64 {
	return uint64(len(s.data))
}

// ReadAt returns a copy of the contents of count sectors beginning at sector.
//
// It returns [ErrOutOfRange] if the range extends beyond the store's capacity.
func (s *Store) ReadAt(sector, count uint64) ([]byte, error) {
	if count > s.Capacity() || sector > s.Capacity()-count {
		return nil, ErrOutOfRange
	}

	buf := make([]byte, count*SectorSize)

	s.mu.Lock()
	copy(buf, s.data[sector*SectorSize:])
	s.mu.Unlock()

	return buf, nil
}

// WriteAt overwrites whole sectors beginning at sector with data.
//
// It returns [ErrOutOfRange] if the range extends beyond the store's
// capacity. data must be an exact multiple of [SectorSize]; partial-sector
// writes are not supported.
func (s *Store) WriteAt(sector uint64, data []byte) error {
	if len(data)%SectorSize != 0 {
		return Error.New("write of %d bytes is not sector aligned", len(data))
	}

	count := uint64(len(data)) / SectorSize
	if count > s.Capacity() || sector > s.Capacity()-count {
		return ErrOutOfRange
	}

	s.mu.Lock()
	copy(s.data[sector*SectorSize:], data)
	s.mu.Unlock()

	return nil
}

// Fingerprint returns a hash of the store's entire contents.
//
// It is intended for cheap "has anything changed" comparisons; it reads the
// full store and is therefore O(capacity).
func (s *Store) Fingerprint() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return xxhash.Sum64(s.data)
}
