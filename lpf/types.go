package lpf

import (
	"errors"

	"github.com/lixenwraith/navcore/vmath"
)

// ErrQueueFull is reported when the update queue rejects an obstacle change
var ErrQueueFull = errors.New("lpf update queue full")

// ObstacleID identifies one dynamic obstacle
type ObstacleID uint32

// FloorID identifies one walkable floor
type FloorID uint32

// ObstacleRecord is one obstacle outline projected onto one floor
type ObstacleRecord struct {
	Obstacle ObstacleID
	Floor    FloorID
	Outline  vmath.Polygon
}

// PreAggregate is the union of overlapping outlines within one floor
// No two member outlines are disjoint
type PreAggregate struct {
	Floor     FloorID
	Obstacles []ObstacleID
	Outline   vmath.Polygon
	Bounds    vmath.AABB2
	// Approximate is set when Outline is a convex hull covering the members, not their union
	Approximate bool
}

// Area is a merged obstacle polygon spanning floors, used for edge blocking
// Floors records where the members came from; blocking is tested in the plane and applies to all floors
type Area struct {
	ID          int
	Outline     vmath.Polygon
	Bounds      vmath.AABB2
	Obstacles   []ObstacleID
	Floors      []FloorID
	Approximate bool
}

// UpdateKind is the kind of an obstacle change
type UpdateKind uint8

const (
	// UpdateSet adds an obstacle or replaces its outline (move, resize)
	UpdateSet UpdateKind = iota
	// UpdateRemove deletes an obstacle from every floor
	UpdateRemove
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateSet:
		return "set"
	case UpdateRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Update is one obstacle change pushed by gameplay code
// Outlines are copied by the producer; the manager owns them once pushed
type Update struct {
	Kind     UpdateKind
	Obstacle ObstacleID
	Floor    FloorID
	Outline  vmath.Polygon
}
