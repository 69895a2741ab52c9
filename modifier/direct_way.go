package modifier

import (
	"github.com/lixenwraith/navcore/async"
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/vmath"
)

// CheckDirectWayNone always follows the path
type CheckDirectWayNone struct{}

func (CheckDirectWayNone) DirectWay(*Context, vmath.Vec3F) bool { return false }
func (CheckDirectWayNone) Reset()                               {}

// CheckDirectWayCanGo walks straight to goals within MaxDistance that the configured CanGo accepts
// With Async set the check runs on the direct_way module; until its result is published the bot
// keeps following the path. A result is reused while the goal and the bot stay within Tolerance of
// the queried positions
type CheckDirectWayCanGo struct {
	MaxDistance float64
	Tolerance   float64
	Async       bool

	canGo  CanGo
	module *async.Module
	owner  async.Owner

	pending uint64
	last    directWayResult
}

type directWayResult struct {
	valid      bool
	from, goal vmath.Vec3F
	clear      bool
}

// NewCheckDirectWayCanGo uses the default distances
func NewCheckDirectWayCanGo(useAsync bool) *CheckDirectWayCanGo {
	return &CheckDirectWayCanGo{
		MaxDistance: parameter.DirectWayMaxDistance,
		Tolerance:   parameter.GoalChangedDistance,
		Async:       useAsync,
	}
}

func (d *CheckDirectWayCanGo) DirectWay(ctx *Context, goal vmath.Vec3F) bool {
	pos := ctx.Bot.Position
	if d.canGo == nil || vmath.V3FDist2D(pos, goal) > d.MaxDistance {
		return false
	}
	if !d.Async {
		return d.canGo.CanGo(ctx.View, pos, goal)
	}

	if d.pending == 0 || !d.owner.Current(d.pending) {
		req := &directWayRequest{
			owner:  d,
			ticket: d.owner.Issue(),
			view:   ctx.View,
			canGo:  d.canGo,
			from:   pos,
			goal:   goal,
		}
		d.pending = req.ticket
		async.Dispatch(d.module, req)
	}
	r := d.last
	return r.valid && r.clear &&
		vmath.V3FDist2D(r.goal, goal) <= d.Tolerance &&
		vmath.V3FDist2D(r.from, pos) <= d.Tolerance
}

// Reset drops the cached result and makes in-flight requests stale
func (d *CheckDirectWayCanGo) Reset() {
	d.owner.Invalidate()
	d.pending = 0
	d.last = directWayResult{}
}

// UseCanGo implements CanGoUser
func (d *CheckDirectWayCanGo) UseCanGo(c CanGo) {
	d.canGo = c
}

// AsyncModule implements AsyncUser
func (d *CheckDirectWayCanGo) AsyncModule() string {
	return async.ModuleDirectWay
}

// BindAsync implements AsyncUser
func (d *CheckDirectWayCanGo) BindAsync(m *async.Module) {
	d.module = m
}

// directWayRequest carries copies of everything the check reads
type directWayRequest struct {
	owner  *CheckDirectWayCanGo
	ticket uint64

	view       View
	canGo      CanGo
	from, goal vmath.Vec3F

	clear bool
}

func (r *directWayRequest) Compute() {
	r.clear = r.canGo.CanGo(r.view, r.from, r.goal)
}

func (r *directWayRequest) Publish() {
	d := r.owner
	if !d.owner.Current(r.ticket) {
		return
	}
	d.pending = 0
	d.last = directWayResult{valid: true, from: r.from, goal: r.goal, clear: r.clear}
}
