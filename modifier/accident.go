package modifier

import (
	"time"

	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/vmath"
)

// --- Goal changed ---

// DetectGoalChangedDistance invalidates the path once the goal moved beyond Threshold
type DetectGoalChangedDistance struct {
	Threshold float64
}

// NewDetectGoalChangedDistance uses the default threshold
func NewDetectGoalChangedDistance() DetectGoalChangedDistance {
	return DetectGoalChangedDistance{Threshold: parameter.GoalChangedDistance}
}

func (d DetectGoalChangedDistance) GoalChanged(ctx *Context, goal vmath.Vec3F) bool {
	if ctx.Path.Empty() {
		return true
	}
	return vmath.V3FDist(ctx.Path.Goal, goal) > d.Threshold
}

// DetectGoalChangedVertex invalidates the path when the goal's nearest vertex is not the path's last
type DetectGoalChangedVertex struct{}

func (DetectGoalChangedVertex) GoalChanged(ctx *Context, goal vmath.Vec3F) bool {
	last, ok := ctx.Path.Last()
	if !ok {
		return true
	}
	v, ok := ctx.Graph.FindNearestVertex(goal)
	if !ok {
		return true
	}
	return v.Key() != last.Vertex.Key()
}

// --- Accidents ---

// DetectAccidentNone never reports an accident
type DetectAccidentNone struct{}

func (DetectAccidentNone) Accident(*Context) bool { return false }
func (DetectAccidentNone) Reset()                 {}

// DetectAccidentStuck reports a bot that tries to move but covers less than MinProgress in Window
type DetectAccidentStuck struct {
	Window      time.Duration
	MinProgress float64

	anchor   vmath.Vec3F
	anchorAt time.Time
	armed    bool
}

// NewDetectAccidentStuck uses the default window
func NewDetectAccidentStuck() *DetectAccidentStuck {
	return &DetectAccidentStuck{Window: parameter.StuckWindow, MinProgress: parameter.StuckMinProgress}
}

func (d *DetectAccidentStuck) Accident(ctx *Context) bool {
	pos := ctx.Bot.Position
	// A bot told to stand still is never stuck
	if ctx.Bot.Attr.Speed <= 0 || !d.armed {
		d.rearm(pos, ctx.Now)
		return false
	}
	if ctx.Now.Sub(d.anchorAt) < d.Window {
		return false
	}
	stuck := vmath.V3FDist2D(pos, d.anchor) < d.MinProgress
	d.rearm(pos, ctx.Now)
	return stuck
}

func (d *DetectAccidentStuck) rearm(pos vmath.Vec3F, now time.Time) {
	d.anchor = pos
	d.anchorAt = now
	d.armed = true
}

func (d *DetectAccidentStuck) Reset() {
	d.armed = false
}

// DetectAccidentOffPath reports a bot farther than MaxDistance from its current path segment
type DetectAccidentOffPath struct {
	MaxDistance float64
}

// NewDetectAccidentOffPath uses the default distance
func NewDetectAccidentOffPath() DetectAccidentOffPath {
	return DetectAccidentOffPath{MaxDistance: parameter.OffPathDistance}
}

func (d DetectAccidentOffPath) Accident(ctx *Context) bool {
	if ctx.Path.Empty() {
		return false
	}
	return ctx.Path.DistanceToSegment(ctx.Bot.Position) > d.MaxDistance
}

func (DetectAccidentOffPath) Reset() {}
