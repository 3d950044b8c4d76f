// The undoctl command administers a running undoblk daemon over its control
// protocol.
//
// Usage:
//
//	undoctl [-addr host:port] <command> [arguments]
//
// The command and its arguments are sent verbatim, so anything the daemon
// understands works here: "create <description>", "rollback <id>", "commit",
// "status", "snapshots" and "journal".
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/fatih/color"
)

const defaultAddress = "127.0.0.1:7420"

var (
	heading = color.New(color.FgCyan, color.Bold)
	failure = color.New(color.FgRed)
)

func main() {
	addr := flag.String("addr", defaultAddress, "address of the undoblk control server")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: undoctl [-addr host:port] <command> [arguments]")
		os.Exit(2)
	}

	if err := run(*addr, strings.Join(flag.Args(), " ")); err != nil {
		failure.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(addr, command string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", command); err != nil {
		return err
	}

	failed := false

	r := bufio.NewScanner(conn)
	for r.Scan() {
		line := r.Text()
		if line == "." {
			if failed {
				os.Exit(1)
			}
			return nil
		}

		switch {
		case strings.HasPrefix(line, "error:"):
			failed = true
			failure.Println(line)
		case isHeading(line):
			heading.Println(line)
		default:
			fmt.Println(line)
		}
	}

	if err := r.Err(); err != nil {
		return err
	}

	return fmt.Errorf("connection to %s closed before the response completed", addr)
}

// isHeading reports whether line is a view title, column header or underline
// rule rather than a data row.
func isHeading(line string) bool {
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, "=") || strings.HasPrefix(line, "-") {
		return true
	}

	switch {
	case strings.HasPrefix(line, "Undo Block Device Status"),
		strings.HasPrefix(line, "ID "),
		strings.HasPrefix(line, "Seq "):
		return true
	}

	return false
}
