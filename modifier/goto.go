package modifier

import (
	"github.com/lixenwraith/navcore/bot"
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/vmath"
)

const (
	// minSlowdownFactor keeps a bot creeping forward inside the slowdown zone
	minSlowdownFactor = 0.2
	// queueSearchMargin widens the neighbour search for bots larger than the querying one
	queueSearchMargin = 1.0
)

// GotoStraight heads straight for the target at full speed, ramping down near the goal
type GotoStraight struct {
	SlowdownDistance float64
}

// NewGotoStraight uses the default slowdown distance
func NewGotoStraight() *GotoStraight {
	return &GotoStraight{SlowdownDistance: parameter.GotoSlowdownDistance}
}

func (g *GotoStraight) Goto(ctx *Context, target vmath.Vec3F, isGoal bool) bot.Action {
	pos := ctx.Bot.Position
	speed := ctx.Bot.MaxSpeed
	if isGoal && g.SlowdownDistance > 0 {
		if d := vmath.V3FDist2D(pos, target); d < g.SlowdownDistance {
			speed *= max(d/g.SlowdownDistance, minSlowdownFactor)
		}
	}
	return bot.Toward(pos, target, speed).WithVertical(pos, target)
}

// GotoQueuing is GotoStraight that stops behind a bot heading to the same goal
// A bot ahead is one closer to the shared goal and in front of the movement direction
type GotoQueuing struct {
	GotoStraight
	// Spacing is the free gap kept to the bot ahead
	Spacing float64
	// SameGoalDistance is how close two goals must be to count as shared
	SameGoalDistance float64
}

// NewGotoQueuing uses the default spacing
func NewGotoQueuing() *GotoQueuing {
	return &GotoQueuing{
		GotoStraight:     *NewGotoStraight(),
		Spacing:          parameter.QueueSpacing,
		SameGoalDistance: parameter.GoalChangedDistance,
	}
}

func (g *GotoQueuing) Goto(ctx *Context, target vmath.Vec3F, isGoal bool) bot.Action {
	a := g.GotoStraight.Goto(ctx, target, isGoal)
	if a.IsStop() || ctx.Crowd == nil {
		return a
	}
	if _, ok := g.blocker(ctx, a.Direction); ok {
		return bot.NoAction
	}
	return a
}

// blocker returns the queued bot directly ahead, if any
func (g *GotoQueuing) blocker(ctx *Context, dir vmath.Vec3F) (bot.State, bool) {
	self := ctx.Bot
	myDist := vmath.V3FDist2D(self.Position, ctx.Goal)
	reach := g.Spacing + 2*self.Radius + vmath.Epsilon
	for _, n := range ctx.Crowd.Neighbours(self.ID(), self.Position, reach+queueSearchMargin) {
		if !n.HasGoal || vmath.V3FDist2D(n.Goal, ctx.Goal) > g.SameGoalDistance {
			continue
		}
		if vmath.V3FDist2D(n.Position, ctx.Goal) >= myDist {
			continue
		}
		rel := vmath.V3FSub(n.Position, self.Position)
		rel.Z = 0
		if vmath.V3FDot(rel, dir) <= 0 {
			continue
		}
		if vmath.V3FMag(rel)-self.Radius-n.Radius < g.Spacing {
			return n, true
		}
	}
	return bot.State{}, false
}

// SupportsQueuing implements QueuingGoto
func (g *GotoQueuing) SupportsQueuing() bool {
	return true
}

// Needs implements CollaboratorUser
func (g *GotoQueuing) Needs() Collaborators {
	return NeedCrowd
}
