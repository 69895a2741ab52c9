package bot

import (
	"math"
	"time"

	"github.com/lixenwraith/navcore/vmath"
)

// Attributes are the named values the core writes and the host engine reads to move its character
type Attributes struct {
	// Speed is the desired planar speed, world units per second
	Speed float64
	// Steering is the desired planar heading, unit length or zero
	Steering vmath.Vec3F
	// Yaw is the desired facing angle in radians
	Yaw float64
	// VerticalSpeed is the desired climb rate
	VerticalSpeed float64
}

// Bot is a movable character driven by a path finder
// Only the owning path finder's goroutine writes to a Bot; other bots read State snapshots
type Bot struct {
	id       string
	Position vmath.Vec3F
	Velocity vmath.Vec3F
	Yaw      float64
	MaxSpeed float64
	Radius   float64

	// Attr holds the latest applied Action
	Attr Attributes
}

// New creates a bot at pos
func New(id string, pos vmath.Vec3F, maxSpeed float64) *Bot {
	return &Bot{
		id:       id,
		Position: pos,
		MaxSpeed: maxSpeed,
		Radius:   0.3,
	}
}

// ID returns the bot identifier
func (b *Bot) ID() string {
	return b.id
}

// State returns a copy of the bot's kinematic state
func (b *Bot) State() State {
	return State{
		ID:       b.id,
		Position: b.Position,
		Velocity: b.Velocity,
		Radius:   b.Radius,
	}
}

// Integrate moves the bot by its applied attributes over dt
// Reference host behaviour for tools and tests; a real engine animates the character itself
func (b *Bot) Integrate(dt time.Duration) {
	secs := dt.Seconds()
	if secs <= 0 {
		return
	}
	speed := math.Min(b.Attr.Speed, b.MaxSpeed)
	b.Velocity = vmath.V3FScale(b.Attr.Steering, speed)
	b.Velocity.Z = b.Attr.VerticalSpeed
	b.Position = vmath.V3FAdd(b.Position, vmath.V3FScale(b.Velocity, secs))
	b.Yaw = b.Attr.Yaw
}

// State is an immutable snapshot of a bot, shared with other bots during a frame
type State struct {
	ID       string
	Position vmath.Vec3F
	Velocity vmath.Vec3F
	Radius   float64

	// Goal is the refined destination the bot is heading to, valid when HasGoal
	Goal    vmath.Vec3F
	HasGoal bool
}
