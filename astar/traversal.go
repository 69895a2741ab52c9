package astar

import (
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/engine/fsm"
	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/path"
	"github.com/lixenwraith/navcore/status"
	"github.com/lixenwraith/navcore/vmath"
)

// node is per-vertex search scratch, valid only when stamp matches the traversal's AstarId
type node struct {
	stamp     uint32
	gen       uint32
	g         float32
	parent    graph.VertexPtr
	hasParent bool
	closed    bool
}

// Options configures a Traversal
type Options struct {
	Bias   PropagationBias
	Filter EdgeFilter
	Status *status.Registry
	Logger *slog.Logger
}

// Traversal is a resumable, time-sliced A* search over a Graph
// Not safe for concurrent use; one traversal per bot or per worker
type Traversal struct {
	g      *graph.Graph
	bias   PropagationBias
	filter EdgeFilter
	logger *slog.Logger

	machine *fsm.Machine[State]

	// Search generation; scratch entries stamped with an older id are unvisited
	astarID uint32
	scratch [][]node
	open    openQueue
	seq     uint64

	start, dest       graph.VertexSafePtr
	startPtr, destPtr graph.VertexPtr
	destPos           vmath.Vec3F
	removals          uint64
	err               error

	stats Stats

	// Cached metric pointers
	statSearches  *atomic.Int64
	statExpanded  *atomic.Int64
	statReopened  *atomic.Int64
	statFound     *atomic.Int64
	statFailed    *atomic.Int64
	statPropagate *atomic.Int64
}

// New creates an idle traversal over g
func New(g *graph.Graph, opts Options) *Traversal {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bias := opts.Bias
	if bias == nil {
		bias = DistanceBias{}
	}
	reg := status.OrNew(opts.Status)

	m := fsm.NewMachine("astar", StateIdle).
		Allow(StateIdle, StateStarted).
		Allow(StateStarted, StatePropagating, StateFailed, StateIdle).
		Allow(StatePropagating, StatePathFound, StateFailed, StateIdle).
		Allow(StatePathFound, StateIdle).
		Allow(StateFailed, StateIdle)

	return &Traversal{
		g:             g,
		bias:          bias,
		filter:        opts.Filter,
		logger:        logger.With(slog.String("component", "astar")),
		machine:       m,
		statSearches:  reg.Ints.Get("astar.searches"),
		statExpanded:  reg.Ints.Get("astar.expanded"),
		statReopened:  reg.Ints.Get("astar.reopened"),
		statFound:     reg.Ints.Get("astar.found"),
		statFailed:    reg.Ints.Get("astar.failed"),
		statPropagate: reg.Ints.Get("astar.propagate_calls"),
	}
}

// SetFilter replaces the edge filter; takes effect on the next expanded vertex
func (t *Traversal) SetFilter(f EdgeFilter) {
	t.filter = f
}

// SetBias replaces the propagation bias; only valid while idle
func (t *Traversal) SetBias(b PropagationBias) {
	if b != nil && t.machine.Is(StateIdle) {
		t.bias = b
	}
}

// State returns the life-cycle state
func (t *Traversal) State() State {
	return t.machine.State()
}

// Err returns the failure reason in the Failed state
func (t *Traversal) Err() error {
	return t.err
}

// AstarID returns the current search generation
func (t *Traversal) AstarID() uint32 {
	return t.astarID
}

// Stats returns lifetime counters
func (t *Traversal) Stats() Stats {
	return t.stats
}

// Start begins a search, abandoning any search in flight
// A start or destination that does not resolve leaves the traversal Failed with ErrBadHandle
func (t *Traversal) Start(start, dest graph.VertexSafePtr) error {
	t.Cancel()

	t.nextID()
	t.open.reset()
	t.err = nil
	t.start, t.dest = start, dest
	t.removals = t.g.Removals()
	t.stats.Searches++
	t.statSearches.Add(1)
	t.transition(StateStarted)

	sp, okStart := t.start.Resolve(t.g)
	dp, okDest := t.dest.Resolve(t.g)
	if !okStart || !okDest {
		return t.fail(ErrBadHandle)
	}
	t.startPtr, t.destPtr = sp, dp
	t.destPos, _ = t.g.Position(dp)

	n := t.node(sp)
	n.g = 0
	startPos, _ := t.g.Position(sp)
	t.push(sp, 0, t.bias.Heuristic(startPos, t.destPos))
	return nil
}

// Cancel abandons the current search and returns to Idle
func (t *Traversal) Cancel() {
	if !t.machine.Is(StateIdle) {
		t.transition(StateIdle)
	}
}

// Propagate expands vertices until the search ends or budget is exhausted
// Each expanded vertex spends one unit; exhaustion is checked before every pop
func (t *Traversal) Propagate(budget engine.Budget) Status {
	switch t.machine.State() {
	case StateIdle:
		return StatusFailed
	case StatePathFound:
		return StatusPathFound
	case StateFailed:
		return StatusFailed
	case StateStarted:
		t.transition(StatePropagating)
	}
	if budget == nil {
		budget = engine.Unlimited()
	}
	t.stats.PropagateCalls++
	t.statPropagate.Add(1)

	if t.g.Removals() != t.removals {
		t.fail(ErrGraphChanged)
		return StatusFailed
	}

	for {
		if len(t.open) == 0 {
			t.fail(ErrNoPath)
			return StatusFailed
		}
		if budget.Exhausted() {
			return StatusInProgress
		}

		e := t.open.pop()
		n := t.node(e.ptr)
		if n.closed || e.g > n.g {
			continue
		}
		budget.Spend(1)
		n.closed = true
		t.stats.Expanded++
		t.statExpanded.Add(1)

		if e.ptr == t.destPtr {
			t.transition(StatePathFound)
			t.statFound.Add(1)
			return StatusPathFound
		}

		if !t.expand(e.ptr, n.g) {
			t.fail(ErrGraphChanged)
			return StatusFailed
		}
	}
}

// expand relaxes the outgoing edges of ptr; false when ptr no longer exists
func (t *Traversal) expand(ptr graph.VertexPtr, g float32) bool {
	v, ok := t.g.Vertex(ptr)
	if !ok {
		return false
	}
	fromKey, _ := t.g.Key(ptr)

	for i := range v.Edges {
		edge := &v.Edges[i]
		to, ok := t.g.EdgeTarget(edge)
		if !ok {
			continue
		}
		toPos, _ := t.g.Position(to)
		if t.filter != nil && t.filter.Blocked(graph.EdgeKey{From: fromKey, To: edge.To.Key()}, v.Position, toPos) {
			continue
		}
		c := t.bias.EdgeCost(ptr, edge)
		if c < 0 || isInf32(c) {
			continue
		}

		ng := g + c
		m := t.node(to)
		if ng >= m.g {
			continue
		}
		if m.closed {
			// Re-open on strict improvement
			m.closed = false
			t.stats.Reopened++
			t.statReopened.Add(1)
		}
		m.g = ng
		m.parent = ptr
		m.hasParent = true
		t.push(to, ng, ng+t.bias.Heuristic(toPos, t.destPos))
	}
	return true
}

// BuildPath walks back pointers from the destination
func (t *Traversal) BuildPath() (*path.Path, error) {
	if !t.machine.Is(StatePathFound) {
		return nil, fmt.Errorf("build path in state %s: %w", t.machine.State(), ErrNotFound)
	}

	var rev []graph.VertexPtr
	cur := t.destPtr
	for {
		rev = append(rev, cur)
		n := t.node(cur)
		if !n.hasParent || cur == t.startPtr {
			break
		}
		cur = n.parent
		if len(rev) > t.g.VertexCount() {
			return nil, fmt.Errorf("back pointer cycle: %w", ErrGraphChanged)
		}
	}
	slices.Reverse(rev)

	nodes := make([]path.Node, len(rev))
	for i, p := range rev {
		sp, ok := t.g.SafePtr(p)
		if !ok {
			return nil, fmt.Errorf("build path: %w", ErrGraphChanged)
		}
		pos, _ := t.g.Position(p)
		nodes[i] = path.Node{Vertex: sp, Position: pos, Cost: t.node(p).g}
		if i > 0 {
			nodes[i].Incoming = graph.EdgeKey{From: nodes[i-1].Vertex.Key(), To: sp.Key()}
			nodes[i].HasIncoming = true
		}
	}
	return path.New(nodes, t.destPos), nil
}

// Cost returns the cost of the found path
func (t *Traversal) Cost() (float32, bool) {
	if !t.machine.Is(StatePathFound) {
		return 0, false
	}
	return t.node(t.destPtr).g, true
}

// Closed reports whether ptr was expanded in the current search
func (t *Traversal) Closed(ptr graph.VertexPtr) bool {
	if int(ptr.Cell.Index) >= len(t.scratch) || int(ptr.Local) >= len(t.scratch[ptr.Cell.Index]) {
		return false
	}
	n := &t.scratch[ptr.Cell.Index][ptr.Local]
	return n.stamp == t.astarID && n.gen == ptr.Cell.Gen && n.closed
}

// --- Internals ---

func (t *Traversal) push(ptr graph.VertexPtr, g, f float32) {
	t.seq++
	t.open.push(openEntry{ptr: ptr, g: g, f: f, seq: t.seq})
}

// node returns the scratch entry of ptr, resetting it when stamped by an older search
func (t *Traversal) node(ptr graph.VertexPtr) *node {
	idx := int(ptr.Cell.Index)
	if idx >= len(t.scratch) {
		t.scratch = append(t.scratch, make([][]node, idx+1-len(t.scratch))...)
	}
	row := t.scratch[idx]
	if int(ptr.Local) >= len(row) {
		row = append(row, make([]node, int(ptr.Local)+1-len(row))...)
		t.scratch[idx] = row
	}
	n := &row[ptr.Local]
	if n.stamp != t.astarID || n.gen != ptr.Cell.Gen {
		*n = node{stamp: t.astarID, gen: ptr.Cell.Gen, g: inf32}
	}
	return n
}

// nextID advances the search generation; on wrap-around the scratch is cleared once
func (t *Traversal) nextID() {
	t.astarID++
	if t.astarID == 0 {
		for i := range t.scratch {
			clear(t.scratch[i])
		}
		t.astarID = 1
	}
}

func (t *Traversal) fail(reason error) error {
	t.err = reason
	t.statFailed.Add(1)
	t.transition(StateFailed)
	t.logger.Debug("search failed", slog.String("reason", reason.Error()), slog.Uint64("astar_id", uint64(t.astarID)))
	return reason
}

func (t *Traversal) transition(to State) {
	if err := t.machine.Transition(to); err != nil {
		// Transition table mismatch is a programming error
		panic(err)
	}
}

// Search runs a traversal to completion with an unlimited budget
func Search(g *graph.Graph, start, dest graph.VertexSafePtr, opts Options) (*path.Path, error) {
	t := New(g, opts)
	if err := t.Start(start, dest); err != nil {
		return nil, err
	}
	if t.Propagate(engine.Unlimited()) != StatusPathFound {
		return nil, t.Err()
	}
	return t.BuildPath()
}
