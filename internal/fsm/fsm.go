// Package fsm provides a tiny finite state machine used to structure the
// run loops of background workers.
package fsm

import "context"

type (
	// State is a function that implements the logic for a single state.
	State func(context.Context) Action

	// State1 is a state that accepts a single argument.
	State1[T1 any] func(context.Context, T1) Action
)

// Action describes the action taken by a state.
type Action struct {
	apply func(*fsm)
}

// fsm is the internal state of a finite state machine.
type fsm struct {
	ctx     context.Context
	current State
	err     error
}

// Start runs the state machine until it is stopped or an error occurs.
func Start(ctx context.Context, initial State) error {
	m := &fsm{
		ctx:     ctx,
		current: initial,
	}

	for m.current != nil {
		act := m.current(m.ctx)
		if act.apply == nil {
			panic("state must return a valid action")
		}
		act.apply(m)
	}

	return m.err
}

// Stop is an action that stops the state machine.
func Stop() Action {
	return Action{func(m *fsm) {
		m.current = nil
		m.err = m.ctx.Err()
	}}
}

// Fail is an action that stops the state machine with an error.
func Fail(err error) Action {
	return Action{func(m *fsm) {
		m.current = nil
		m.err = err
	}}
}

// StayInCurrentState is an action that stays in the current state.
func StayInCurrentState() Action {
	return Action{func(*fsm) {}}
}

// EnterState returns an action that transitions to a new state.
func EnterState(next State) Action {
	if next == nil {
		panic("state must not be nil")
	}

	return Action{func(m *fsm) {
		m.current = next
	}}
}

// Binding returns actions that can be performed by the state machine within
// the context of some additional arguments.
type Binding[S any] struct {
	EnterState func(S) Action
}

// With binds a state to an argument.
func With[T1 any](v1 T1) Binding[State1[T1]] {
	return Binding[State1[T1]]{
		func(s State1[T1]) Action {
			return EnterState(
				func(ctx context.Context) Action {
					return s(ctx, v1)
				},
			)
		},
	}
}
