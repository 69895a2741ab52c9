package pathfinder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/lixenwraith/navcore/astar"
	"github.com/lixenwraith/navcore/async"
	"github.com/lixenwraith/navcore/bot"
	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/engine/fsm"
	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/lpf"
	"github.com/lixenwraith/navcore/modifier"
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/path"
	"github.com/lixenwraith/navcore/status"
	"github.com/lixenwraith/navcore/vmath"
)

var (
	// ErrNotInitialized is reported by a path finder used before Initialize succeeded
	ErrNotInitialized = errors.New("path finder not initialized")
	// ErrUnreachableGoal is the failure reason when goal refinement rejects the destination
	ErrUnreachableGoal = errors.New("destination cannot be refined to a reachable goal")
	// ErrNoEndpoints is the failure reason when no search endpoints were found
	ErrNoEndpoints = errors.New("no graph vertex for start or goal")
)

// AreaSource provides the LPF snapshot of the current frame
type AreaSource interface {
	Areas() *lpf.AreaSet
}

// Config wires a path finder to its world
// Graph is required; every other collaborator is optional and enables the modifiers that need it
type Config struct {
	Graph     *graph.Graph
	Lpf       AreaSource
	Async     *async.Manager
	Tasks     *engine.TaskRegistry
	Clock     engine.Clock
	Mesh      bot.NavMesh
	Collision bot.CollisionBridge
	Crowd     bot.Population
	Bias      astar.PropagationBias

	TabooDuration time.Duration
	RetryInterval time.Duration

	Status *status.Registry
	Logger *slog.Logger
}

// State is the path finder life cycle
type State int

const (
	StateIdle State = iota
	StateSearching
	StateFollowing
	StateDirect
	StateArrived
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateFollowing:
		return "following"
	case StateDirect:
		return "direct"
	case StateArrived:
		return "arrived"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// searchPhase tracks an in-flight recompute
type searchPhase uint8

const (
	phaseNone searchPhase = iota
	phaseFindNodes
	phasePropagate
)

// PathFinder turns a destination into one movement action per frame for one bot
// Not safe for concurrent use; the frame loop calls it from one goroutine per frame
type PathFinder struct {
	cfg    Config
	bot    *bot.Bot
	mods   Modifiers
	ready  bool
	logger *slog.Logger
	clock  engine.Clock

	ctx     modifier.Context
	trav    *astar.Traversal
	machine *fsm.Machine[State]

	path     *path.Path
	finalLeg bool

	phase      searchPhase
	searchGoal vmath.Vec3F
	searchRef  *path.Path

	goal          vmath.Vec3F
	hasGoal       bool
	committedGoal vmath.Vec3F

	failedAt   time.Time
	failedGoal vmath.Vec3F
	err        error

	taboo map[graph.EdgeKey]time.Time

	statRecomputes  *atomic.Int64
	statFailures    *atomic.Int64
	statAccidents   *atomic.Int64
	statStale       *atomic.Int64
	statEdgeBlocked *atomic.Int64
	statTaboo       *atomic.Int64
	statArrivals    *atomic.Int64
	statDirect      *atomic.Int64
}

// New creates a path finder for b; Initialize must succeed before FindNextMove does anything
func New(b *bot.Bot, cfg Config) *PathFinder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "pathfinder"), slog.String("bot", b.ID()))
	if cfg.TabooDuration <= 0 {
		cfg.TabooDuration = parameter.TabooDuration
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = parameter.SearchRetryInterval
	}
	reg := status.OrNew(cfg.Status)
	cfg.Status = reg

	m := fsm.NewMachine("pathfinder", StateIdle).
		Allow(StateIdle, StateSearching, StateDirect, StateArrived, StateFailed).
		Allow(StateSearching, StateFollowing, StateDirect, StateArrived, StateFailed).
		Allow(StateFollowing, StateSearching, StateDirect, StateArrived, StateFailed).
		Allow(StateDirect, StateSearching, StateFollowing, StateArrived, StateFailed).
		Allow(StateArrived, StateSearching, StateFollowing, StateDirect, StateFailed).
		Allow(StateFailed, StateSearching, StateFollowing, StateDirect, StateArrived)

	return &PathFinder{
		cfg:             cfg,
		bot:             b,
		logger:          logger,
		clock:           engine.OrRealTime(cfg.Clock),
		machine:         m,
		taboo:           make(map[graph.EdgeKey]time.Time),
		statRecomputes:  reg.Ints.Get("pathfinder.recomputes"),
		statFailures:    reg.Ints.Get("pathfinder.search_failures"),
		statAccidents:   reg.Ints.Get("pathfinder.accidents"),
		statStale:       reg.Ints.Get("pathfinder.stale_paths"),
		statEdgeBlocked: reg.Ints.Get("pathfinder.edge_blocked"),
		statTaboo:       reg.Ints.Get("pathfinder.taboo_edges"),
		statArrivals:    reg.Ints.Get("pathfinder.arrivals"),
		statDirect:      reg.Ints.Get("pathfinder.direct_frames"),
	}
}

// Initialize validates and binds a modifier set
// A *ConfigError leaves the path finder unusable until a valid set is given
func (pf *PathFinder) Initialize(mods Modifiers) error {
	if pf.cfg.Graph == nil {
		return &ConfigError{Slot: "Graph", Reason: "no graph", Err: ErrMissingModifier}
	}
	env := Environment{
		HasLpf:       pf.cfg.Lpf != nil,
		HasMesh:      pf.cfg.Mesh != nil,
		HasCollision: pf.cfg.Collision != nil,
		HasCrowd:     pf.cfg.Crowd != nil,
	}
	if err := CheckModifierDependencies(mods, env); err != nil {
		pf.ready = false
		pf.logger.Error("modifier set rejected", slog.Any("error", err))
		return err
	}
	mods = mods.withDefaults()

	for _, s := range mods.slots() {
		if u, ok := s.m.(modifier.CanGoUser); ok {
			u.UseCanGo(mods.CanGo)
		}
		if u, ok := s.m.(modifier.AsyncUser); ok {
			u.BindAsync(pf.cfg.Async.Module(u.AsyncModule()))
		}
	}

	pf.mods = mods
	pf.ctx = modifier.Context{
		View:   modifier.View{Mesh: pf.cfg.Mesh, Collision: pf.cfg.Collision},
		Bot:    pf.bot,
		Graph:  pf.cfg.Graph,
		Crowd:  pf.cfg.Crowd,
		Logger: pf.logger,
	}
	pf.trav = astar.New(pf.cfg.Graph, astar.Options{
		Bias:   pf.cfg.Bias,
		Filter: astar.EdgeFilterFunc(pf.edgeBlocked),
		Status: pf.cfg.Status,
		Logger: pf.logger,
	})
	pf.ready = true
	return nil
}

// --- Accessors ---

// State returns the life-cycle state
func (pf *PathFinder) State() State {
	return pf.machine.State()
}

// Err returns the reason of the last failure
func (pf *PathFinder) Err() error {
	return pf.err
}

// Path returns the path being followed, nil when none
func (pf *PathFinder) Path() *path.Path {
	return pf.path
}

// Goal returns the refined goal of the last frame
func (pf *PathFinder) Goal() (vmath.Vec3F, bool) {
	return pf.goal, pf.hasGoal
}

// Bot returns the driven bot
func (pf *PathFinder) Bot() *bot.Bot {
	return pf.bot
}

// TabooEdges returns the number of edges currently excluded from searches
func (pf *PathFinder) TabooEdges() int {
	return len(pf.taboo)
}

// --- Pipeline ---

// FindNextMove runs the modifier pipeline for one frame
// Returns the action to apply and whether the goal is reached. A failed search yields
// (bot.NoAction, false); it is retried when the goal changes or after the retry interval
func (pf *PathFinder) FindNextMove(destination vmath.Vec3F) (bot.Action, bool) {
	if !pf.ready {
		pf.err = ErrNotInitialized
		return bot.NoAction, false
	}
	now := pf.clock.Now()
	if !pf.ctx.Now.IsZero() {
		pf.ctx.Delta = now.Sub(pf.ctx.Now)
	}
	pf.ctx.Now = now
	if pf.cfg.Lpf != nil {
		pf.ctx.Areas = pf.cfg.Lpf.Areas()
	}

	// Refine
	goal, ok := pf.mods.RefineGoal.Refine(&pf.ctx, destination)
	if !ok {
		pf.cancelSearch()
		pf.dropPath()
		pf.fail(ErrUnreachableGoal, destination)
		return bot.NoAction, false
	}
	pf.setGoal(goal)

	// Goal changed
	switch {
	case pf.phase == phaseFindNodes:
		// No destination vertex yet to compare against
		if vmath.V3FDist(goal, pf.searchGoal) > parameter.GoalChangedDistance {
			pf.cancelSearch()
		}
	case pf.phase == phasePropagate:
		if pf.goalChangedFrom(pf.searchRef, goal) {
			pf.cancelSearch()
		}
	case pf.path != nil:
		if pf.goalChangedFrom(pf.path, goal) {
			pf.dropPath()
		}
	}

	var target vmath.Vec3F
	isGoal := false
	if pf.mods.DirectWay.DirectWay(&pf.ctx, goal) {
		pf.cancelSearch()
		pf.statDirect.Add(1)
		pf.enter(StateDirect)
		target, isGoal = goal, true
	} else {
		pf.checkPath()
		if pf.path == nil && pf.phase == phaseNone {
			if pf.machine.Is(StateFailed) && !pf.shouldRetry(goal, now) {
				return bot.NoAction, false
			}
			pf.startSearch(goal)
		}
		if pf.phase != phaseNone {
			pf.stepSearch()
		}
		if pf.path == nil {
			return bot.NoAction, false
		}
		pf.enter(StateFollowing)
		target, isGoal = pf.nextTarget(goal)
	}

	action := pf.mods.Goto.Goto(&pf.ctx, target, isGoal)
	action = pf.mods.Steering.Steer(&pf.ctx, action)

	if pf.mods.GoalReached.GoalReached(&pf.ctx, goal) {
		if !pf.machine.Is(StateArrived) {
			pf.statArrivals.Add(1)
			pf.logger.Debug("goal reached", slog.Any("goal", goal))
		}
		pf.enter(StateArrived)
		return bot.NoAction, true
	}
	return action, false
}

// setGoal records the refined goal; a goal drifting past the change distance restarts arrival detection
func (pf *PathFinder) setGoal(goal vmath.Vec3F) {
	if !pf.hasGoal || vmath.V3FDist(goal, pf.committedGoal) > parameter.GoalChangedDistance {
		pf.mods.GoalReached.Reset()
		pf.committedGoal = goal
	}
	pf.goal = goal
	pf.hasGoal = true
	pf.ctx.Goal = goal
}

// goalChangedFrom asks the detector about goal against a reference path
func (pf *PathFinder) goalChangedFrom(ref *path.Path, goal vmath.Vec3F) bool {
	saved := pf.ctx.Path
	pf.ctx.Path = ref
	changed := pf.mods.GoalChanged.GoalChanged(&pf.ctx, goal)
	pf.ctx.Path = saved
	return changed
}

// checkPath drops the followed path on an accident, a stale vertex or a newly blocked edge
func (pf *PathFinder) checkPath() {
	if pf.path == nil {
		return
	}
	switch {
	case pf.mods.Accident.Accident(&pf.ctx):
		pf.statAccidents.Add(1)
		if e, ok := pf.path.CurrentEdge(); ok {
			pf.taboo[e] = pf.ctx.Now.Add(pf.cfg.TabooDuration)
			pf.statTaboo.Add(1)
		}
		pf.logger.Debug("accident, recomputing", slog.Int("node", pf.path.CurrentIndex()))
		pf.dropPath()
	case !pf.path.Validate(pf.cfg.Graph):
		pf.statStale.Add(1)
		pf.logger.Debug("path references a vertex that streamed out, recomputing")
		pf.dropPath()
	case pf.remainingBlocked():
		pf.statEdgeBlocked.Add(1)
		pf.logger.Debug("edge ahead blocked, recomputing")
		pf.dropPath()
	}
}

// remainingBlocked reports whether the awareness strategy sees any edge ahead blocked
func (pf *PathFinder) remainingBlocked() bool {
	if pf.mods.EdgeAwareness == nil {
		return false
	}
	nodes := pf.path.Nodes
	for i := max(pf.path.CurrentIndex(), 1); i < len(nodes); i++ {
		n := &nodes[i]
		if n.HasIncoming && pf.mods.EdgeAwareness.Blocked(&pf.ctx, n.Incoming, nodes[i-1].Position, n.Position) {
			return true
		}
	}
	return false
}

// nextTarget advances past reached nodes and returns where to head
// Once the last node is reached the bot heads for the refined goal itself
func (pf *PathFinder) nextTarget(goal vmath.Vec3F) (vmath.Vec3F, bool) {
	if !pf.finalLeg {
		node, _ := pf.path.Current()
		prev, _ := pf.path.Previous()
		if pf.mods.NodeReached.NodeReached(&pf.ctx, node, prev) {
			pf.mods.NodeReached.Reset()
			if !pf.path.Advance() {
				pf.finalLeg = true
			}
		}
	}
	if pf.finalLeg {
		return goal, true
	}
	node, _ := pf.path.Current()
	return node.Position, false
}

// --- Search ---

func (pf *PathFinder) startSearch(goal vmath.Vec3F) {
	pf.cancelSearch()
	now := pf.ctx.Now
	pf.taboo = lo.PickBy(pf.taboo, func(_ graph.EdgeKey, until time.Time) bool {
		return now.Before(until)
	})
	pf.mods.FindNodes.Reset()
	pf.mods.NodeReached.Reset()
	pf.mods.Accident.Reset()
	pf.phase = phaseFindNodes
	pf.searchGoal = goal
	pf.searchRef = nil
	pf.statRecomputes.Add(1)
	pf.enter(StateSearching)
}

// stepSearch advances the in-flight recompute by one frame's worth of work
func (pf *PathFinder) stepSearch() {
	if pf.phase == phaseFindNodes {
		start, dest, st := pf.mods.FindNodes.FindNodes(&pf.ctx, pf.bot.Position, pf.searchGoal)
		switch st {
		case modifier.LookupPending:
			return
		case modifier.LookupFailed:
			pf.phase = phaseNone
			pf.fail(ErrNoEndpoints, pf.searchGoal)
			return
		}
		if err := pf.trav.Start(start, dest); err != nil {
			pf.phase = phaseNone
			pf.fail(err, pf.searchGoal)
			return
		}
		destPos, _ := pf.vertexPosition(dest)
		pf.searchRef = path.New([]path.Node{{Vertex: dest, Position: destPos}}, pf.searchGoal)
		pf.phase = phasePropagate
	}

	switch pf.trav.Propagate(pf.cfg.Tasks.Budget(engine.TaskAstar)) {
	case astar.StatusInProgress:
		return
	case astar.StatusFailed:
		pf.phase = phaseNone
		pf.fail(pf.trav.Err(), pf.searchGoal)
		return
	}

	p, err := pf.trav.BuildPath()
	pf.phase = phaseNone
	pf.trav.Cancel()
	if err != nil {
		pf.fail(err, pf.searchGoal)
		return
	}
	p.Goal = pf.searchGoal
	pf.path = p
	pf.ctx.Path = p
	pf.finalLeg = false
	pf.err = nil
	cost := p.TotalCost()
	pf.logger.Debug("path found", slog.Int("nodes", p.Len()), slog.Float64("cost", float64(cost)))
}

func (pf *PathFinder) vertexPosition(v graph.VertexSafePtr) (vmath.Vec3F, bool) {
	p, ok := v.Resolve(pf.cfg.Graph)
	if !ok {
		return vmath.Vec3F{}, false
	}
	return pf.cfg.Graph.Position(p)
}

// edgeBlocked is the traversal filter: taboo edges, then edges the bot perceives as blocked
func (pf *PathFinder) edgeBlocked(k graph.EdgeKey, from, to vmath.Vec3F) bool {
	if until, ok := pf.taboo[k]; ok && pf.ctx.Now.Before(until) {
		return true
	}
	return pf.mods.EdgeAwareness != nil && pf.mods.EdgeAwareness.Blocked(&pf.ctx, k, from, to)
}

// cancelSearch abandons the in-flight recompute, if any
func (pf *PathFinder) cancelSearch() {
	if pf.phase == phaseNone {
		return
	}
	pf.phase = phaseNone
	pf.searchRef = nil
	pf.trav.Cancel()
}

func (pf *PathFinder) dropPath() {
	pf.path = nil
	pf.ctx.Path = nil
	pf.finalLeg = false
}

func (pf *PathFinder) fail(err error, goal vmath.Vec3F) {
	pf.err = err
	pf.failedAt = pf.ctx.Now
	pf.failedGoal = goal
	pf.statFailures.Add(1)
	pf.logger.Debug("no path", slog.String("reason", err.Error()), slog.Any("goal", goal))
	pf.enter(StateFailed)
}

func (pf *PathFinder) shouldRetry(goal vmath.Vec3F, now time.Time) bool {
	return now.Sub(pf.failedAt) >= pf.cfg.RetryInterval ||
		vmath.V3FDist(goal, pf.failedGoal) > parameter.GoalChangedDistance
}

func (pf *PathFinder) enter(s State) {
	if pf.machine.Is(s) {
		return
	}
	if err := pf.machine.Transition(s); err != nil {
		panic(fmt.Errorf("pathfinder: %w", err))
	}
}
