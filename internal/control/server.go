// Package control implements the device's control-plane text protocol.
//
// Clients connect over TCP and issue line-oriented commands; every response
// is terminated by a line containing a single ".". The command set mirrors
// the device's original administrative surface: "create" and "rollback"
// mutate, while "status", "snapshots" and "journal" render read-only views.
package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/undoblk/undoblk/internal/device"
	"github.com/undoblk/undoblk/internal/telemetry"
)

// DefaultListenAddress is the address the server listens on when none is
// configured.
const DefaultListenAddress = "127.0.0.1:7420"

// responseTerminator ends every response.
const responseTerminator = "."

// A Server serves the control-plane protocol for a single device.
type Server struct {
	// Device is the device being controlled.
	Device *device.Device

	// Listener is the listener to serve on. If it is nil a TCP listener is
	// opened on ListenAddress.
	Listener net.Listener

	// ListenAddress is the TCP address to listen on when Listener is nil.
	// An empty address means DefaultListenAddress.
	ListenAddress string

	// Telemetry is the source of the server's traces, metrics and logs.
	Telemetry *telemetry.Provider

	init   sync.Once
	logger *slog.Logger
}

func (s *Server) ensure() {
	s.init.Do(func() {
		s.logger = s.Telemetry.Recorder("control").Logger
	})
}

// Run serves the control protocol until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.ensure()

	lis := s.Listener
	if lis == nil {
		addr := s.ListenAddress
		if addr == "" {
			addr = DefaultListenAddress
		}

		var err error
		lis, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("control server: %w", err)
		}
	}
	defer lis.Close()

	s.logger.InfoContext(
		ctx,
		"control server listening",
		slog.String("address", lis.Addr().String()),
	)

	stop := context.AfterFunc(ctx, func() {
		lis.Close()
	})
	defer stop()

	var conns sync.WaitGroup
	defer conns.Wait()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("control server: %w", err)
		}

		conns.Add(1)
		go func() {
			defer conns.Done()
			s.serve(ctx, conn)
		}()
	}
}

// serve handles a single client connection.
func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	r := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)

	for r.Scan() {
		response := s.dispatch(ctx, r.Text())

		if _, err := fmt.Fprintf(w, "%s\n%s\n", response, responseTerminator); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}

	if err := r.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
		s.logger.DebugContext(
			ctx,
			"control connection failed",
			slog.String("error", err.Error()),
		)
	}
}
