package test

import (
	"context"
	"errors"
	"testing"
	"time"
)

const shutdownTimeout = 5 * time.Second

var errStopped = errors.New("task was stopped")

// TaskRunner launches a task in the background.
type TaskRunner struct {
	t  *testing.T
	fn func(ctx context.Context) error
}

// RunInBackground returns a [TaskRunner] that executes fn in its own
// goroutine.
func RunInBackground(
	t *testing.T,
	fn func(ctx context.Context) error,
) TaskRunner {
	t.Helper()
	return TaskRunner{t, fn}
}

// UntilTestEnds executes the task in its own goroutine until the test ends.
//
// If the task completes before the test ends, the test fails.
func (r TaskRunner) UntilTestEnds() *Task {
	r.t.Helper()

	task := r.run()

	r.t.Cleanup(func() {
		r.t.Helper()

		select {
		case <-task.Done():
			switch task.Err() {
			case errStopped:
			case nil:
				r.t.Error("background task returned before the test ended")
			default:
				r.t.Errorf("background task returned an error before the test ended: %s", task.Err())
			}
		default:
			task.Stop()
			<-task.Done()

			if task.Err() != errStopped {
				r.t.Errorf("background task returned an unexpected error: %s", task.Err())
			}
		}
	})

	return task
}

func (r TaskRunner) run() *Task {
	r.t.Helper()

	ctx, cancel := context.WithCancelCause(context.Background())

	task := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		err := r.fn(ctx)

		if err == context.Canceled && ctx.Err() == context.Canceled {
			task.err = context.Cause(ctx)
		} else {
			task.err = err
		}

		close(task.done)
	}()

	r.t.Cleanup(func() {
		r.t.Helper()

		cancel(nil)

		select {
		case <-task.done:
		case <-time.After(shutdownTimeout):
			r.t.Error("background task did not stop in time")
		}
	})

	return task
}

// Task is a function running in the background of a test.
type Task struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
	err    error
}

// Stop cancels the task's context.
func (t *Task) Stop() {
	t.cancel(errStopped)
}

// Done returns a channel that is closed when the task returns.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the error returned by the task, if any. It may only be called
// after the channel returned by Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		panic("task has not finished")
	}
}
