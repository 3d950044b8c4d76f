package snapshot_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/undoblk/undoblk/internal/snapshot"
)

func TestRegistry(t *testing.T) {
	t.Run("it assigns sequential zero-based IDs", func(t *testing.T) {
		t.Parallel()

		reg := New(4)

		for want := 0; want < 4; want++ {
			id, err := reg.Add(Snapshot{
				Timestamp:       time.Now(),
				JournalSequence: uint64(want),
			})
			if err != nil {
				t.Fatal(err)
			}

			if id != want {
				t.Fatalf("unexpected snapshot ID: got %d, want %d", id, want)
			}
		}
	})

	t.Run("it preserves creation order", func(t *testing.T) {
		t.Parallel()

		reg := New(4)

		for _, seq := range []uint64{1, 1, 5} {
			if _, err := reg.Add(Snapshot{JournalSequence: seq}); err != nil {
				t.Fatal(err)
			}
		}

		var prev uint64
		for _, s := range reg.All() {
			if s.JournalSequence < prev {
				t.Fatal("snapshot journal sequences are not non-decreasing in creation order")
			}
			prev = s.JournalSequence
		}
	})

	t.Run("it rejects additions at capacity", func(t *testing.T) {
		t.Parallel()

		reg := New(1)

		if _, err := reg.Add(Snapshot{}); err != nil {
			t.Fatal(err)
		}

		if !reg.Full() {
			t.Fatal("expected registry to be full")
		}

		if _, err := reg.Add(Snapshot{}); !errors.Is(err, ErrTooMany) {
			t.Fatalf("unexpected error: got %v, want %v", err, ErrTooMany)
		}

		if reg.Len() != 1 {
			t.Fatalf("unexpected registry length: got %d, want 1", reg.Len())
		}
	})

	t.Run("it rejects lookups of unknown IDs", func(t *testing.T) {
		t.Parallel()

		reg := New(4)

		for _, id := range []int{-1, 0, 7} {
			if _, err := reg.Get(id); !errors.Is(err, ErrNotFound) {
				t.Fatalf("unexpected error for ID %d: got %v, want %v", id, err, ErrNotFound)
			}
		}
	})

	t.Run("it truncates over-long descriptions", func(t *testing.T) {
		t.Parallel()

		reg := New(1)

		id, err := reg.Add(Snapshot{
			Description: strings.Repeat("x", DescriptionLimit+20),
		})
		if err != nil {
			t.Fatal(err)
		}

		s, err := reg.Get(id)
		if err != nil {
			t.Fatal(err)
		}

		if len(s.Description) != DescriptionLimit {
			t.Fatalf("unexpected description length: got %d, want %d", len(s.Description), DescriptionLimit)
		}
	})
}
