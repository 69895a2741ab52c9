package bot

import (
	"math"

	"github.com/lixenwraith/navcore/vmath"
)

// Action is the per-frame movement decision of a path finder
type Action struct {
	Speed         float64
	Direction     vmath.Vec3F
	Yaw           float64
	VerticalSpeed float64
}

// NoAction stops the bot
var NoAction = Action{}

// Toward builds an action heading from pos to target at speed
// A target closer than vmath.Epsilon yields NoAction
func Toward(pos, target vmath.Vec3F, speed float64) Action {
	d := vmath.V3FSub(target, pos)
	d.Z = 0
	if vmath.V3FMag(d) <= vmath.Epsilon || speed <= 0 {
		return NoAction
	}
	dir := vmath.V3FNormalize(d)
	return Action{
		Speed:     speed,
		Direction: dir,
		Yaw:       vmath.V3FYaw(dir),
	}
}

// IsStop reports whether the action leaves the bot standing
func (a Action) IsStop() bool {
	return a.Speed <= 0 && a.VerticalSpeed == 0
}

// WithVertical returns a copy climbing toward target height over the planar distance
func (a Action) WithVertical(pos, target vmath.Vec3F) Action {
	planar := vmath.V3FDist2D(pos, target)
	if planar <= vmath.Epsilon || a.Speed <= 0 {
		return a
	}
	a.VerticalSpeed = (target.Z - pos.Z) / planar * a.Speed
	return a
}

// Apply writes the action into the bot's named attributes
// Yaw is kept when the action does not move the bot
func (a Action) Apply(b *Bot) {
	b.Attr.Speed = math.Max(0, a.Speed)
	b.Attr.Steering = a.Direction
	b.Attr.VerticalSpeed = a.VerticalSpeed
	if a.Speed > 0 {
		b.Attr.Yaw = a.Yaw
	} else {
		b.Attr.Yaw = b.Yaw
	}
}
