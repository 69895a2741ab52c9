package modifier

import (
	"time"

	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/vmath"
)

// EdgeStatusAwarenessImmediate sees the current LPF state of every edge
type EdgeStatusAwarenessImmediate struct{}

func (EdgeStatusAwarenessImmediate) Blocked(ctx *Context, _ graph.EdgeKey, from, to vmath.Vec3F) bool {
	return ctx.Areas.IsEdgeBlocked(vmath.V3FXY(from), vmath.V3FXY(to))
}

// NeedsLpf implements LpfAware
func (EdgeStatusAwarenessImmediate) NeedsLpf() bool {
	return true
}

// EdgeStatusAwarenessDistanceTime notices blocked edges at once but believes an edge is clear again
// only after it has been clear for ForgetDelay and the bot came within AwarenessDistance of it
type EdgeStatusAwarenessDistanceTime struct {
	AwarenessDistance float64
	ForgetDelay       time.Duration

	remembered map[graph.EdgeKey]edgeMemory
}

type edgeMemory struct {
	clearing  bool
	clearedAt time.Time
}

// NewEdgeStatusAwarenessDistanceTime uses the default distance and delay
func NewEdgeStatusAwarenessDistanceTime() *EdgeStatusAwarenessDistanceTime {
	return &EdgeStatusAwarenessDistanceTime{
		AwarenessDistance: parameter.EdgeAwarenessDistance,
		ForgetDelay:       parameter.EdgeForgetDelay,
		remembered:        make(map[graph.EdgeKey]edgeMemory),
	}
}

func (e *EdgeStatusAwarenessDistanceTime) Blocked(ctx *Context, k graph.EdgeKey, from, to vmath.Vec3F) bool {
	a, b := vmath.V3FXY(from), vmath.V3FXY(to)
	if ctx.Areas.IsEdgeBlocked(a, b) {
		e.remembered[k] = edgeMemory{}
		return true
	}
	m, ok := e.remembered[k]
	if !ok {
		return false
	}
	if !m.clearing {
		m = edgeMemory{clearing: true, clearedAt: ctx.Now}
		e.remembered[k] = m
	}
	if ctx.Now.Sub(m.clearedAt) >= e.ForgetDelay &&
		vmath.DistPointSegment(vmath.V3FXY(ctx.Bot.Position), a, b) <= e.AwarenessDistance {
		delete(e.remembered, k)
		return false
	}
	return true
}

// Remembered returns the number of edges still believed blocked
func (e *EdgeStatusAwarenessDistanceTime) Remembered() int {
	return len(e.remembered)
}

// NeedsLpf implements LpfAware
func (e *EdgeStatusAwarenessDistanceTime) NeedsLpf() bool {
	return true
}
