package modifier

import (
	"math"

	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/path"
	"github.com/lixenwraith/navcore/vmath"
)

// --- Goal reached ---

// DetectGoalReachedDistance latches on planar distance to the goal
// A height difference above HeightTolerance counts as not reached
type DetectGoalReachedDistance struct {
	Hysteresis
	HeightTolerance float64
}

// NewDetectGoalReachedDistance uses the default goal thresholds
func NewDetectGoalReachedDistance() *DetectGoalReachedDistance {
	return &DetectGoalReachedDistance{
		Hysteresis:      Hysteresis{DistMin: parameter.GoalReachedDistMin, DistMax: parameter.GoalReachedDistMax},
		HeightTolerance: parameter.GoalReachedHeightTolerance,
	}
}

func (d *DetectGoalReachedDistance) GoalReached(ctx *Context, goal vmath.Vec3F) bool {
	return d.Update(goalDistance(ctx.Bot.Position, goal, d.HeightTolerance))
}

func goalDistance(pos, goal vmath.Vec3F, heightTolerance float64) float64 {
	if heightTolerance > 0 && math.Abs(pos.Z-goal.Z) > heightTolerance {
		return math.Inf(1)
	}
	return vmath.V3FDist2D(pos, goal)
}

// DetectGoalReachedDontQueue also counts the goal reached when the bot stands in the queue of bots
// that share it: within QueueDistance of the goal and stopped behind a bot that is closer
// Only meaningful with a queuing Goto, which is what makes bots stop behind each other
type DetectGoalReachedDontQueue struct {
	DetectGoalReachedDistance
	// QueueDistance bounds how far from the goal a queued bot may stand
	QueueDistance float64
	// SameGoalDistance is how close two goals must be to count as shared
	SameGoalDistance float64
}

// NewDetectGoalReachedDontQueue uses the default goal thresholds
func NewDetectGoalReachedDontQueue() *DetectGoalReachedDontQueue {
	return &DetectGoalReachedDontQueue{
		DetectGoalReachedDistance: *NewDetectGoalReachedDistance(),
		QueueDistance:             4 * parameter.QueueSpacing,
		SameGoalDistance:          parameter.GoalChangedDistance,
	}
}

func (d *DetectGoalReachedDontQueue) GoalReached(ctx *Context, goal vmath.Vec3F) bool {
	if d.DetectGoalReachedDistance.GoalReached(ctx, goal) {
		return true
	}
	if ctx.Crowd == nil {
		return false
	}
	pos := ctx.Bot.Position
	myDist := goalDistance(pos, goal, d.HeightTolerance)
	if myDist > d.QueueDistance {
		return false
	}
	for _, n := range ctx.Crowd.Neighbours(ctx.Bot.ID(), pos, myDist+ctx.Bot.Radius) {
		if !n.HasGoal || vmath.V3FDist2D(n.Goal, goal) > d.SameGoalDistance {
			continue
		}
		if vmath.V3FDist2D(n.Position, goal) < myDist {
			return true
		}
	}
	return false
}

// NeedsQueuingGoto implements QueueDependent
func (d *DetectGoalReachedDontQueue) NeedsQueuingGoto() bool {
	return true
}

// Needs implements CollaboratorUser
func (d *DetectGoalReachedDontQueue) Needs() Collaborators {
	return NeedCrowd
}

// --- Path node reached ---

// DetectPathNodeReachedDistance latches on planar distance to the current node
type DetectPathNodeReachedDistance struct {
	Hysteresis
}

// NewDetectPathNodeReachedDistance uses the default node thresholds
func NewDetectPathNodeReachedDistance() *DetectPathNodeReachedDistance {
	return &DetectPathNodeReachedDistance{
		Hysteresis: Hysteresis{DistMin: parameter.PathNodeReachedDistMin, DistMax: parameter.PathNodeReachedDistMax},
	}
}

func (d *DetectPathNodeReachedDistance) NodeReached(ctx *Context, node, _ *path.Node) bool {
	return d.Update(vmath.V3FDist2D(ctx.Bot.Position, node.Position))
}

// DetectPathNodeReachedPassed adds the passed-plane test to the distance latch
// A bot beyond the plane through the node, perpendicular to the incoming segment, has reached it
type DetectPathNodeReachedPassed struct {
	Hysteresis
}

// NewDetectPathNodeReachedPassed uses the default node thresholds
func NewDetectPathNodeReachedPassed() *DetectPathNodeReachedPassed {
	return &DetectPathNodeReachedPassed{
		Hysteresis: Hysteresis{DistMin: parameter.PathNodeReachedDistMin, DistMax: parameter.PathNodeReachedDistMax},
	}
}

func (d *DetectPathNodeReachedPassed) NodeReached(ctx *Context, node, prev *path.Node) bool {
	pos := ctx.Bot.Position
	if d.Update(vmath.V3FDist2D(pos, node.Position)) {
		return true
	}
	if prev == nil {
		return false
	}
	seg := vmath.V2FSub(vmath.V3FXY(node.Position), vmath.V3FXY(prev.Position))
	if vmath.V2FMag(seg) <= vmath.Epsilon {
		return false
	}
	return vmath.V2FDot(vmath.V2FSub(vmath.V3FXY(pos), vmath.V3FXY(node.Position)), seg) >= 0
}
