package world

import (
	"sync"

	"github.com/lixenwraith/navcore/bot"
	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/vmath"
)

// Member is anything that can describe itself as a bot snapshot
type Member interface {
	Snapshot() bot.State
}

// Crowd snapshots every member once per frame before agents update
// Neighbours reads only the snapshot, so agents updated in parallel never observe each other mid-move
type Crowd struct {
	mu      sync.RWMutex
	members []Member
	states  []bot.State
}

func NewCrowd() *Crowd {
	return &Crowd{}
}

// Add registers a member
func (c *Crowd) Add(m Member) {
	c.mu.Lock()
	c.members = append(c.members, m)
	c.mu.Unlock()
}

// UpdateFrame implements engine.FrameUpdater
func (c *Crowd) UpdateFrame(engine.Frame) {
	c.Refresh()
}

// Refresh retakes the snapshot
func (c *Crowd) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = c.states[:0]
	for _, m := range c.members {
		c.states = append(c.states, m.Snapshot())
	}
}

// Neighbours implements bot.Population
func (c *Crowd) Neighbours(self string, pos vmath.Vec3F, radius float64) []bot.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []bot.State
	for _, s := range c.states {
		if s.ID == self {
			continue
		}
		if vmath.V3FDist2D(s.Position, pos) <= radius {
			out = append(out, s)
		}
	}
	return out
}

// States returns a copy of the current snapshot
func (c *Crowd) States() []bot.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]bot.State(nil), c.states...)
}
