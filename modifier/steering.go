package modifier

import (
	"math"
	"time"

	"github.com/lixenwraith/navcore/bot"
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/vmath"
)

// SteeringDirect passes the Goto action through
type SteeringDirect struct{}

func (SteeringDirect) Steer(_ *Context, a bot.Action) bot.Action {
	return a
}

// SteeringAvoidance bends the heading away from the most imminent collision with a neighbour
// Neighbours are extrapolated at constant velocity over Horizon
type SteeringAvoidance struct {
	Radius  float64
	Horizon time.Duration
}

// NewSteeringAvoidance uses the default radius and horizon
func NewSteeringAvoidance() SteeringAvoidance {
	return SteeringAvoidance{Radius: parameter.AvoidanceRadius, Horizon: parameter.AvoidanceHorizon}
}

func (s SteeringAvoidance) Steer(ctx *Context, a bot.Action) bot.Action {
	if a.Speed <= 0 || ctx.Crowd == nil {
		return a
	}
	self := ctx.Bot
	pos := vmath.V3FXY(self.Position)
	vel := vmath.V2FScale(vmath.V3FXY(a.Direction), a.Speed)
	horizon := s.Horizon.Seconds()

	earliest := math.Inf(1)
	var threat vmath.Vec2F
	for _, n := range ctx.Crowd.Neighbours(self.ID(), self.Position, s.Radius) {
		rel := vmath.V2FSub(vmath.V3FXY(n.Position), pos)
		relVel := vmath.V2FSub(vmath.V3FXY(n.Velocity), vel)
		t := closestApproach(rel, relVel)
		if t > horizon {
			continue
		}
		miss := vmath.V2FAdd(rel, vmath.V2FScale(relVel, t))
		if vmath.V2FMag(miss) >= self.Radius+n.Radius {
			continue
		}
		if t < earliest {
			earliest = t
			threat = rel
		}
	}
	if math.IsInf(earliest, 1) {
		return a
	}

	// Sidestep to the side of the heading away from the threat
	dir := vmath.V3FXY(a.Direction)
	side := vmath.V2FPerp(dir)
	if vmath.V2FCross(dir, threat) > 0 {
		side = vmath.V2FScale(side, -1)
	}
	urgency := 1 - earliest/horizon
	steered := vmath.V2FNormalize(vmath.V2FAdd(dir, vmath.V2FScale(side, urgency)))
	out := a
	out.Direction = vmath.V3FFromXY(steered, 0)
	out.Yaw = vmath.V3FYaw(out.Direction)
	out.Speed = a.Speed * (1 - 0.5*urgency)
	return out
}

// closestApproach returns the non-negative time of minimum separation
func closestApproach(rel, relVel vmath.Vec2F) float64 {
	vv := vmath.V2FDot(relVel, relVel)
	if vv <= vmath.Epsilon {
		return 0
	}
	return math.Max(0, -vmath.V2FDot(rel, relVel)/vv)
}

// Needs implements CollaboratorUser
func (SteeringAvoidance) Needs() Collaborators {
	return NeedCrowd
}
