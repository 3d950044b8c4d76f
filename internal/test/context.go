package test

import (
	"context"
	"testing"
	"time"
)

const defaultTestTimeout = 10 * time.Second

// Context is a [testing.T] that is also a [context.Context] bound to the
// test's lifetime.
type Context struct {
	*testing.T
	ctx context.Context
}

// WithContext returns a Context that is canceled when the test completes, or
// when the test timeout elapses.
func WithContext(t *testing.T) Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	t.Cleanup(cancel)

	return Context{t, ctx}
}

// Deadline implements [context.Context].
func (c Context) Deadline() (time.Time, bool) { return c.ctx.Deadline() }

// Done implements [context.Context].
func (c Context) Done() <-chan struct{} { return c.ctx.Done() }

// Err implements [context.Context].
func (c Context) Err() error { return c.ctx.Err() }

// Value implements [context.Context].
func (c Context) Value(key any) any { return c.ctx.Value(key) }
