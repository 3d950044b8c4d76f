// The undoblk command runs an undo block device daemon, configured entirely
// from the environment. See [undoblk.FerriteRegistry] for the variables it
// understands.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dogmatiq/ferrite"
	"github.com/undoblk/undoblk"
)

func main() {
	ferrite.Init(
		ferrite.WithRegistry(undoblk.FerriteRegistry),
	)

	logger := slog.New(
		slog.NewJSONHandler(
			os.Stdout,
			&slog.HandlerOptions{
				Level: slog.LevelDebug,
			},
		),
	)

	e := undoblk.New(
		undoblk.WithOptionsFromEnvironment(),
		undoblk.WithLogger(logger),
	)

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(
			"engine stopped",
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
}
