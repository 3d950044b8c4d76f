package blockstore_test

import (
	"bytes"
	"errors"
	"testing"

	. "github.com/undoblk/undoblk/internal/blockstore"
)

func TestStore(t *testing.T) {
	t.Run("it round-trips sector-aligned writes", func(t *testing.T) {
		t.Parallel()

		store := New(100)

		want := bytes.Repeat([]byte{0xAA}, 2*SectorSize)
		if err := store.WriteAt(5, want); err != nil {
			t.Fatal(err)
		}

		got, err := store.ReadAt(5, 2)
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(got, want) {
			t.Fatal("read did not return the data that was written")
		}
	})

	t.Run("it reads zeroes from untouched sectors", func(t *testing.T) {
		t.Parallel()

		store := New(100)

		got, err := store.ReadAt(99, 1)
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(got, make([]byte, SectorSize)) {
			t.Fatal("expected untouched sector to be zeroed")
		}
	})

	t.Run("it rejects out-of-range requests without modifying state", func(t *testing.T) {
		t.Parallel()

		store := New(100)
		before := store.Fingerprint()

		if _, err := store.ReadAt(99, 2); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("unexpected error: got %v, want %v", err, ErrOutOfRange)
		}

		err := store.WriteAt(99, make([]byte, 2*SectorSize))
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("unexpected error: got %v, want %v", err, ErrOutOfRange)
		}

		if store.Fingerprint() != before {
			t.Fatal("store was modified by a rejected request")
		}
	})

	t.Run("it rejects partial-sector writes", func(t *testing.T) {
		t.Parallel()

		store := New(100)

		if err := store.WriteAt(0, make([]byte, SectorSize-1)); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("it reports its geometry", func(t *testing.T) {
		t.Parallel()

		store := New(100)

		if store.Capacity() != 100 {
			t.Fatalf("unexpected capacity: got %d, want 100", store.Capacity())
		}

		if store.Size() != 100*SectorSize {
			t.Fatalf("unexpected size: got %d, want %d", store.Size(), 100*SectorSize)
		}
	})

	t.Run("the fingerprint changes when the contents change", func(t *testing.T) {
		t.Parallel()

		store := New(100)
		before := store.Fingerprint()

		if err := store.WriteAt(42, bytes.Repeat([]byte{0xBB}, SectorSize)); err != nil {
			t.Fatal(err)
		}

		if store.Fingerprint() == before {
			t.Fatal("fingerprint did not change after a write")
		}
	})
}
