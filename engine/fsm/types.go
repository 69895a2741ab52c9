package fsm

import (
	"errors"
	"time"
)

// ErrInvalidTransition is returned when a transition is not declared for the current state
var ErrInvalidTransition = errors.New("invalid state transition")

// EnterFunc runs after the machine enters a state
// from is the state that was left
type EnterFunc[S comparable] func(from S)

// Machine is a flat finite state machine with a declared transition table
// S is the state type, usually a small integer enum with a String method
type Machine[S comparable] struct {
	name string

	// Graph data, immutable after construction
	transitions map[S]map[S]struct{}
	onEnter     map[S][]EnterFunc[S]

	// Runtime state
	initial     S
	state       S
	timeInState time.Duration
	changes     uint64
}
