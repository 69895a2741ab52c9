package fsm

import (
	"fmt"
	"time"
)

// NewMachine creates a machine in the initial state
// name is used in error messages only
func NewMachine[S comparable](name string, initial S) *Machine[S] {
	return &Machine[S]{
		name:        name,
		transitions: make(map[S]map[S]struct{}),
		onEnter:     make(map[S][]EnterFunc[S]),
		initial:     initial,
		state:       initial,
	}
}

// Allow declares transitions from one state to each of the targets
func (m *Machine[S]) Allow(from S, to ...S) *Machine[S] {
	set, ok := m.transitions[from]
	if !ok {
		set = make(map[S]struct{}, len(to))
		m.transitions[from] = set
	}
	for _, t := range to {
		set[t] = struct{}{}
	}
	return m
}

// OnEnter registers a callback executed after entering state s
func (m *Machine[S]) OnEnter(s S, fn EnterFunc[S]) *Machine[S] {
	m.onEnter[s] = append(m.onEnter[s], fn)
	return m
}

// State returns the active state
func (m *Machine[S]) State() S {
	return m.state
}

// Is reports whether the active state is s
func (m *Machine[S]) Is(s S) bool {
	return m.state == s
}

// Can reports whether a transition to s is declared from the active state
func (m *Machine[S]) Can(to S) bool {
	_, ok := m.transitions[m.state][to]
	return ok
}

// Transition moves to state to, running its OnEnter callbacks
func (m *Machine[S]) Transition(to S) error {
	if !m.Can(to) {
		return fmt.Errorf("%s: %v -> %v: %w", m.name, m.state, to, ErrInvalidTransition)
	}
	from := m.state
	m.state = to
	m.timeInState = 0
	m.changes++
	for _, fn := range m.onEnter[to] {
		fn(from)
	}
	return nil
}

// Reset forces the initial state without running callbacks
func (m *Machine[S]) Reset() {
	m.state = m.initial
	m.timeInState = 0
}

// Update accumulates time spent in the active state
func (m *Machine[S]) Update(dt time.Duration) {
	m.timeInState += dt
}

// TimeInState returns the time accumulated by Update since the last transition
func (m *Machine[S]) TimeInState() time.Duration {
	return m.timeInState
}

// Changes returns the number of transitions performed since construction
func (m *Machine[S]) Changes() uint64 {
	return m.changes
}
