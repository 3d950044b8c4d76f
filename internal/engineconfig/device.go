package engineconfig

import (
	"fmt"

	"github.com/dogmatiq/ferrite"
	"github.com/undoblk/undoblk/internal/blockstore"
)

var (
	capacityInBytes = ferrite.
			Unsigned[uint64]("UNDOBLK_CAPACITY", "the capacity of the device, in bytes").
			WithMinimum(blockstore.SectorSize).
			Optional(ferrite.WithRegistry(FerriteRegistry))

	journalEntries = ferrite.
			Unsigned[uint]("UNDOBLK_JOURNAL_ENTRIES", "the maximum number of journal entries").
			WithMinimum(1).
			Optional(ferrite.WithRegistry(FerriteRegistry))

	maxSnapshots = ferrite.
			Unsigned[uint]("UNDOBLK_SNAPSHOTS", "the maximum number of snapshots").
			WithMinimum(1).
			Optional(ferrite.WithRegistry(FerriteRegistry))
)

func (c *Config) finalizeDevice() {
	if !c.UseEnv {
		return
	}

	if c.Device.CapacitySectors == 0 {
		if n, ok := capacityInBytes.Value(); ok {
			if n%blockstore.SectorSize != 0 {
				panic(fmt.Sprintf(
					"UNDOBLK_CAPACITY must be a multiple of the %d-byte sector size",
					blockstore.SectorSize,
				))
			}
			c.Device.CapacitySectors = n / blockstore.SectorSize
		}
	}

	if c.Device.JournalEntries == 0 {
		if n, ok := journalEntries.Value(); ok {
			c.Device.JournalEntries = int(n)
		}
	}

	if c.Device.MaxSnapshots == 0 {
		if n, ok := maxSnapshots.Value(); ok {
			c.Device.MaxSnapshots = int(n)
		}
	}
}
