package control

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// usage is returned in response to unparsable commands.
const usage = "error: invalid command, use 'create <description>', 'rollback <id>', 'commit', 'status', 'snapshots' or 'journal'"

// dispatch parses a single command line and executes it against the device.
//
// The returned string never contains the response terminator; the transport
// adds framing.
func (s *Server) dispatch(ctx context.Context, line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return usage
	}

	switch fields[0] {
	case "create":
		return s.create(ctx, strings.Join(fields[1:], " "))
	case "rollback":
		if len(fields) != 2 {
			return usage
		}
		return s.rollback(ctx, fields[1])
	case "commit":
		return s.commit(ctx)
	case "status":
		return renderStatus(s.Device.Status())
	case "snapshots":
		return renderSnapshots(s.Device.SnapshotList())
	case "journal":
		return renderJournal(s.Device.JournalEntryList())
	default:
		return usage
	}
}

func (s *Server) create(ctx context.Context, description string) string {
	id, err := s.Device.CreateSnapshot(ctx, description)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("created snapshot %d", id)
}

func (s *Server) rollback(ctx context.Context, arg string) string {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return usage
	}

	if err := s.Device.Rollback(ctx, id); err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("rollback to snapshot %d queued", id)
}

func (s *Server) commit(ctx context.Context) string {
	seq, err := s.Device.Commit(ctx)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("commit recorded at sequence %d", seq)
}
