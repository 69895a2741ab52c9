package pathfinder

import (
	"sync"

	"github.com/lixenwraith/navcore/bot"
	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/vmath"
)

// Driver runs a path finder as a frame scheduler agent
// Each frame it asks for the next move, applies it to the bot and, when Simulate is set,
// integrates the bot's motion as a stand-in host engine
type Driver struct {
	pf       *PathFinder
	Simulate bool

	mu          sync.Mutex
	destination vmath.Vec3F
	hasDest     bool
	arrived     bool
	frames      uint64
}

// NewDriver wraps an initialized path finder
func NewDriver(pf *PathFinder, simulate bool) *Driver {
	return &Driver{pf: pf, Simulate: simulate}
}

// ID implements engine.Agent
func (d *Driver) ID() string {
	return d.pf.bot.ID()
}

// PathFinder returns the driven path finder
func (d *Driver) PathFinder() *PathFinder {
	return d.pf
}

// SetDestination changes where the bot heads; safe to call between frames from any goroutine
func (d *Driver) SetDestination(pos vmath.Vec3F) {
	d.mu.Lock()
	d.destination = pos
	d.hasDest = true
	d.arrived = false
	d.mu.Unlock()
}

// Arrived reports whether the goal was reached on the last frame
func (d *Driver) Arrived() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.arrived
}

// Frames returns the number of frames the driver has run
func (d *Driver) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// UpdateFrame implements engine.FrameUpdater
func (d *Driver) UpdateFrame(f engine.Frame) {
	d.mu.Lock()
	dest, ok := d.destination, d.hasDest
	d.frames++
	d.mu.Unlock()

	b := d.pf.bot
	action := bot.NoAction
	arrived := false
	if ok {
		action, arrived = d.pf.FindNextMove(dest)
	}
	action.Apply(b)
	if d.Simulate {
		b.Integrate(f.Delta)
	}

	d.mu.Lock()
	d.arrived = arrived
	d.mu.Unlock()
}

// Snapshot implements world.Member
func (d *Driver) Snapshot() bot.State {
	s := d.pf.bot.State()
	s.Goal, s.HasGoal = d.pf.Goal()
	return s
}
