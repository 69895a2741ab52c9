package astar

import (
	"errors"
	"math"

	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/vmath"
)

var (
	// ErrNoPath is the failure reason when the open set empties before the destination
	ErrNoPath = errors.New("no path to destination")
	// ErrBadHandle is the failure reason when start or destination does not resolve
	ErrBadHandle = errors.New("start or destination vertex does not exist")
	// ErrGraphChanged is the failure reason when a cell streamed out during the search
	ErrGraphChanged = errors.New("graph changed during search")
	// ErrNotFound is returned by BuildPath outside the PathFound state
	ErrNotFound = errors.New("traversal has no path")
)

// State is the traversal life cycle
type State int

const (
	StateIdle State = iota
	StateStarted
	StatePropagating
	StatePathFound
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarted:
		return "started"
	case StatePropagating:
		return "propagating"
	case StatePathFound:
		return "path_found"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the result of one Propagate call
type Status int

const (
	StatusInProgress Status = iota
	StatusPathFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusPathFound:
		return "path_found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PropagationBias supplies edge costs and the heuristic
// The heuristic must never overestimate the remaining cost for results to be optimal
type PropagationBias interface {
	Heuristic(from, to vmath.Vec3F) float32
	// EdgeCost returns a non-negative cost, or +Inf for an impassable edge
	EdgeCost(from graph.VertexPtr, e *graph.Edge) float32
}

// DistanceBias is straight-line distance over length * multiplier edge costs
// MinMultiplier scales the heuristic; it must not exceed the smallest edge multiplier (0 means 1)
type DistanceBias struct {
	MinMultiplier float32
}

// Heuristic implements PropagationBias
func (b DistanceBias) Heuristic(from, to vmath.Vec3F) float32 {
	m := b.MinMultiplier
	if m <= 0 {
		m = 1
	}
	return float32(vmath.V3FDist(from, to)) * m
}

// EdgeCost implements PropagationBias
func (DistanceBias) EdgeCost(_ graph.VertexPtr, e *graph.Edge) float32 {
	return e.Cost()
}

// EdgeFilter excludes edges from a search
type EdgeFilter interface {
	// Blocked reports whether the edge must not be traversed
	Blocked(k graph.EdgeKey, from, to vmath.Vec3F) bool
}

// EdgeFilterFunc adapts a function to EdgeFilter
type EdgeFilterFunc func(k graph.EdgeKey, from, to vmath.Vec3F) bool

// Blocked implements EdgeFilter
func (f EdgeFilterFunc) Blocked(k graph.EdgeKey, from, to vmath.Vec3F) bool {
	return f(k, from, to)
}

// Filters blocks an edge when any member does
type Filters []EdgeFilter

// Blocked implements EdgeFilter
func (fs Filters) Blocked(k graph.EdgeKey, from, to vmath.Vec3F) bool {
	for _, f := range fs {
		if f != nil && f.Blocked(k, from, to) {
			return true
		}
	}
	return false
}

// Stats counts work of one traversal over its lifetime
type Stats struct {
	Searches       uint64
	Expanded       uint64
	Reopened       uint64
	PropagateCalls uint64
}

var inf32 = float32(math.Inf(1))

func isInf32(v float32) bool {
	return math.IsInf(float64(v), 1)
}
