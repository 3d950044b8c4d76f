package test

import (
	"context"

	"github.com/google/go-cmp/cmp"
)

// Expect compares two values and fails the test if they are different.
func Expect[T any](
	t TestingT,
	got, want T,
	options ...cmp.Option,
) {
	t.Helper()

	if diff := cmp.Diff(want, got, options...); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}
}

// ExpectChannelToReceive waits until a value is received from a channel and
// then compares it to the expected value.
func ExpectChannelToReceive[T any](
	ctx context.Context,
	t TestingT,
	ch <-chan T,
	want T,
	options ...cmp.Option,
) {
	t.Helper()

	select {
	case <-ctx.Done():
		t.Fatalf("no value received on channel: %s", ctx.Err())
	case got, ok := <-ch:
		if !ok {
			t.Error("channel closed while expecting to receive a value")
			return
		}
		Expect(t, got, want, options...)
	}
}
