package modifier

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lixenwraith/navcore/async"
	"github.com/lixenwraith/navcore/bot"
	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/lpf"
	"github.com/lixenwraith/navcore/path"
	"github.com/lixenwraith/navcore/vmath"
)

// ErrBadThreshold is returned by Validate for inconsistent thresholds
var ErrBadThreshold = errors.New("invalid modifier threshold")

// View is the read-only world a query may consult from any goroutine
// Every field is either immutable or safe for concurrent reads
type View struct {
	Mesh      bot.NavMesh
	Collision bot.CollisionBridge
	// Areas is the LPF snapshot of this frame, nil without an LPF context
	Areas *lpf.AreaSet
}

// Context is what a path finder hands its modifiers each frame
// It is owned by one path finder and never shared between bots
type Context struct {
	View

	Bot   *bot.Bot
	Graph *graph.Graph
	// Path is the path being followed, nil while none is computed
	Path *path.Path
	// Goal is the refined destination of this frame
	Goal  vmath.Vec3F
	Crowd bot.Population

	Now    time.Time
	Delta  time.Duration
	Logger *slog.Logger
}

// HasLpf reports whether an LPF snapshot is available
func (c *Context) HasLpf() bool {
	return c.Areas != nil
}

// --- Modifier interfaces ---

// Goto turns a target position into a movement action
type Goto interface {
	Goto(ctx *Context, target vmath.Vec3F, isGoal bool) bot.Action
}

// CanGo reports whether a bot could walk straight between two points
// Implementations are stateless so async requests may call them on the worker
type CanGo interface {
	CanGo(v View, from, to vmath.Vec3F) bool
}

// DetectGoalReached decides when the final destination is reached
type DetectGoalReached interface {
	GoalReached(ctx *Context, goal vmath.Vec3F) bool
	Reset()
}

// DetectPathNodeReached decides when the current path node is reached
type DetectPathNodeReached interface {
	NodeReached(ctx *Context, node, prev *path.Node) bool
	Reset()
}

// DetectGoalChanged decides whether the current path no longer leads to goal
type DetectGoalChanged interface {
	GoalChanged(ctx *Context, goal vmath.Vec3F) bool
}

// DetectAccident reports a bot that can no longer follow its path
type DetectAccident interface {
	Accident(ctx *Context) bool
	Reset()
}

// RefineGoal adjusts a requested destination to a reachable point
type RefineGoal interface {
	Refine(ctx *Context, dest vmath.Vec3F) (vmath.Vec3F, bool)
}

// CheckDirectWay reports whether the goal can be walked to without a path
type CheckDirectWay interface {
	DirectWay(ctx *Context, goal vmath.Vec3F) bool
	Reset()
}

// EdgeStatusAwareness reports how the bot perceives an edge blocked by LPF obstacles
type EdgeStatusAwareness interface {
	Blocked(ctx *Context, k graph.EdgeKey, from, to vmath.Vec3F) bool
}

// FindNodesFromPositions maps the bot position and the goal to search endpoints
type FindNodesFromPositions interface {
	FindNodes(ctx *Context, from, to vmath.Vec3F) (start, dest graph.VertexSafePtr, st Lookup)
	Reset()
}

// Steering adjusts the Goto action for local concerns such as other bots
type Steering interface {
	Steer(ctx *Context, a bot.Action) bot.Action
}

// Lookup is the outcome of a node lookup
type Lookup uint8

const (
	LookupPending Lookup = iota
	LookupFound
	LookupFailed
)

func (l Lookup) String() string {
	switch l {
	case LookupPending:
		return "pending"
	case LookupFound:
		return "found"
	case LookupFailed:
		return "failed"
	}
	return "unknown"
}

// --- Capabilities ---

// QueuingGoto is a Goto that yields behind bots sharing its goal
type QueuingGoto interface {
	Goto
	SupportsQueuing() bool
}

// QueueDependent is implemented by modifiers that only work with a queuing Goto
type QueueDependent interface {
	NeedsQueuingGoto() bool
}

// LpfAware is implemented by modifiers that read LPF areas
type LpfAware interface {
	NeedsLpf() bool
}

// CanGoUser is implemented by modifiers built on the configured CanGo
type CanGoUser interface {
	UseCanGo(c CanGo)
}

// AsyncUser is implemented by modifiers that can offload work to an async module
// BindAsync receives nil when the module is not registered; the modifier then computes in place
type AsyncUser interface {
	AsyncModule() string
	BindAsync(m *async.Module)
}

// Collaborators lists world services a modifier needs
type Collaborators uint8

const (
	NeedMesh Collaborators = 1 << iota
	NeedCollision
	NeedCrowd
)

func (c Collaborators) String() string {
	var s string
	for _, n := range []struct {
		bit  Collaborators
		name string
	}{{NeedMesh, "navmesh"}, {NeedCollision, "collision"}, {NeedCrowd, "crowd"}} {
		if c&n.bit != 0 {
			if s != "" {
				s += ","
			}
			s += n.name
		}
	}
	return s
}

// CollaboratorUser is implemented by modifiers that query world services
type CollaboratorUser interface {
	Needs() Collaborators
}

// --- Hysteresis ---

// Hysteresis is a two-threshold distance latch
// It enters the reached state at or below DistMin and leaves it only above DistMax
type Hysteresis struct {
	DistMin float64
	DistMax float64

	reached bool
}

// Validate checks 0 <= DistMin < DistMax
func (h *Hysteresis) Validate() error {
	if h.DistMin < 0 || h.DistMin >= h.DistMax {
		return fmt.Errorf("%w: hysteresis min %.3f max %.3f", ErrBadThreshold, h.DistMin, h.DistMax)
	}
	return nil
}

// Update feeds the current distance and returns the latch state
func (h *Hysteresis) Update(d float64) bool {
	if h.reached {
		if d > h.DistMax {
			h.reached = false
		}
	} else if d <= h.DistMin {
		h.reached = true
	}
	return h.reached
}

// Reached returns the latch state without updating it
func (h *Hysteresis) Reached() bool {
	return h.reached
}

// Reset clears the latch
func (h *Hysteresis) Reset() {
	h.reached = false
}

// Validator is implemented by modifiers with checkable thresholds
type Validator interface {
	Validate() error
}
