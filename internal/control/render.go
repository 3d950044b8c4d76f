package control

import (
	"fmt"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/undoblk/undoblk/internal/device"
	"github.com/undoblk/undoblk/internal/journal"
	"github.com/undoblk/undoblk/internal/snapshot"
)

// timestampFormat renders entry and snapshot timestamps in the views.
const timestampFormat = time.DateTime

func renderStatus(st device.Status) string {
	yesNo := "no"
	if st.Degraded {
		yesNo = "yes"
	}

	var w strings.Builder

	fmt.Fprintf(&w, "Undo Block Device Status\n")
	fmt.Fprintf(&w, "========================\n")
	fmt.Fprintf(&w, "Device ID:           %s\n", st.ID)
	fmt.Fprintf(&w, "Capacity:            %d sectors (%s)\n", st.CapacitySectors, datasize.ByteSize(st.CapacityBytes))
	fmt.Fprintf(&w, "Journal entries:     %d / %d\n", st.JournalEntries, st.JournalCapacity)
	fmt.Fprintf(&w, "Snapshots:           %d / %d\n", st.Snapshots, st.SnapshotCapacity)
	fmt.Fprintf(&w, "Journal sequence:    %d\n", st.Sequence)
	fmt.Fprintf(&w, "Journaling degraded: %s\n", yesNo)
	fmt.Fprintf(&w, "Content fingerprint: %016x", st.Fingerprint)

	return w.String()
}

func renderSnapshots(snapshots []snapshot.Snapshot) string {
	var w strings.Builder

	fmt.Fprintf(&w, "%-3s %-19s %-8s %s\n", "ID", "Timestamp", "Seq", "Description")
	fmt.Fprintf(&w, "%s %s %s %s", strings.Repeat("-", 3), strings.Repeat("-", 19), strings.Repeat("-", 8), strings.Repeat("-", 11))

	for id, sn := range snapshots {
		fmt.Fprintf(
			&w,
			"\n%-3d %-19s %-8d %s",
			id,
			sn.Timestamp.Format(timestampFormat),
			sn.JournalSequence,
			sn.Description,
		)
	}

	return w.String()
}

func renderJournal(entries []*journal.Entry) string {
	var w strings.Builder

	fmt.Fprintf(&w, "%-6s %-8s %-19s %-10s %-7s %s\n", "Seq", "Type", "Timestamp", "Sector", "Sectors", "Checksum")
	fmt.Fprintf(&w, "%s %s %s %s %s %s", strings.Repeat("-", 6), strings.Repeat("-", 8), strings.Repeat("-", 19), strings.Repeat("-", 10), strings.Repeat("-", 7), strings.Repeat("-", 8))

	for _, e := range entries {
		fmt.Fprintf(
			&w,
			"\n%-6d %-8s %-19s %-10d %-7d %08x",
			e.Sequence,
			e.Kind,
			e.Timestamp.Format(timestampFormat),
			e.Sector,
			e.SectorCount,
			e.Checksum,
		)
	}

	return w.String()
}
