package pathfinder

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/navcore/modifier"
)

var (
	// ErrIncompatibleModifiers is wrapped by ConfigError when two strategies cannot work together
	ErrIncompatibleModifiers = errors.New("incompatible modifiers")
	// ErrMissingModifier is wrapped by ConfigError when a required slot or collaborator is empty
	ErrMissingModifier = errors.New("missing modifier")
)

// ConfigError reports a modifier set rejected at initialization
type ConfigError struct {
	Slot   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("modifier %s: %s: %v", e.Slot, e.Reason, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Modifiers holds one strategy per concern
// Goto, GoalReached, NodeReached, GoalChanged and FindNodes are required; the other slots fall
// back to no-op strategies. Strategies keep per-bot state, so a set must not be shared between
// path finders
type Modifiers struct {
	Goto          modifier.Goto
	CanGo         modifier.CanGo
	GoalReached   modifier.DetectGoalReached
	NodeReached   modifier.DetectPathNodeReached
	GoalChanged   modifier.DetectGoalChanged
	Accident      modifier.DetectAccident
	RefineGoal    modifier.RefineGoal
	DirectWay     modifier.CheckDirectWay
	EdgeAwareness modifier.EdgeStatusAwareness
	FindNodes     modifier.FindNodesFromPositions
	Steering      modifier.Steering
}

// DefaultModifiers returns a set that needs no world collaborator besides the graph
func DefaultModifiers() Modifiers {
	return Modifiers{
		Goto:        modifier.NewGotoStraight(),
		GoalReached: modifier.NewDetectGoalReachedDistance(),
		NodeReached: modifier.NewDetectPathNodeReachedDistance(),
		GoalChanged: modifier.NewDetectGoalChangedDistance(),
		Accident:    modifier.DetectAccidentNone{},
		RefineGoal:  modifier.RefineGoalNone{},
		DirectWay:   modifier.CheckDirectWayNone{},
		FindNodes:   modifier.NewFindNodesNearest(false),
		Steering:    modifier.SteeringDirect{},
	}
}

// withDefaults fills the optional slots
func (m Modifiers) withDefaults() Modifiers {
	if m.Accident == nil {
		m.Accident = modifier.DetectAccidentNone{}
	}
	if m.RefineGoal == nil {
		m.RefineGoal = modifier.RefineGoalNone{}
	}
	if m.DirectWay == nil {
		m.DirectWay = modifier.CheckDirectWayNone{}
	}
	if m.Steering == nil {
		m.Steering = modifier.SteeringDirect{}
	}
	return m
}

type slot struct {
	name     string
	m        any
	required bool
}

func (m Modifiers) slots() []slot {
	return []slot{
		{"Goto", m.Goto, true},
		{"CanGo", m.CanGo, false},
		{"GoalReached", m.GoalReached, true},
		{"NodeReached", m.NodeReached, true},
		{"GoalChanged", m.GoalChanged, true},
		{"Accident", m.Accident, false},
		{"RefineGoal", m.RefineGoal, false},
		{"DirectWay", m.DirectWay, false},
		{"EdgeAwareness", m.EdgeAwareness, false},
		{"FindNodes", m.FindNodes, true},
		{"Steering", m.Steering, false},
	}
}

// Environment is what a modifier set may depend on
type Environment struct {
	HasLpf       bool
	HasMesh      bool
	HasCollision bool
	HasCrowd     bool
}

// CheckModifierDependencies validates a modifier set against itself and its environment
// Slots are checked in a fixed order and the first failure is returned
func CheckModifierDependencies(m Modifiers, env Environment) error {
	for _, s := range m.slots() {
		if s.m == nil {
			if s.required {
				return &ConfigError{Slot: s.name, Reason: "required slot is empty", Err: ErrMissingModifier}
			}
			continue
		}

		if v, ok := s.m.(modifier.Validator); ok {
			if err := v.Validate(); err != nil {
				return &ConfigError{Slot: s.name, Reason: "invalid thresholds", Err: err}
			}
		}

		if q, ok := s.m.(modifier.QueueDependent); ok && q.NeedsQueuingGoto() {
			g, ok := m.Goto.(modifier.QueuingGoto)
			if !ok || !g.SupportsQueuing() {
				return &ConfigError{Slot: s.name, Reason: fmt.Sprintf("requires a queuing Goto, have %T", m.Goto), Err: ErrIncompatibleModifiers}
			}
		}

		if l, ok := s.m.(modifier.LpfAware); ok && l.NeedsLpf() && !env.HasLpf {
			return &ConfigError{Slot: s.name, Reason: "requires an LPF context", Err: ErrIncompatibleModifiers}
		}

		if _, ok := s.m.(modifier.CanGoUser); ok && m.CanGo == nil {
			return &ConfigError{Slot: s.name, Reason: "requires a CanGo strategy", Err: ErrMissingModifier}
		}

		if c, ok := s.m.(modifier.CollaboratorUser); ok {
			if missing := c.Needs() &^ env.collaborators(); missing != 0 {
				return &ConfigError{Slot: s.name, Reason: "requires " + missing.String(), Err: ErrIncompatibleModifiers}
			}
		}
	}
	return nil
}

func (env Environment) collaborators() modifier.Collaborators {
	var c modifier.Collaborators
	if env.HasMesh {
		c |= modifier.NeedMesh
	}
	if env.HasCollision {
		c |= modifier.NeedCollision
	}
	if env.HasCrowd {
		c |= modifier.NeedCrowd
	}
	return c
}
