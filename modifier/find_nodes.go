package modifier

import (
	"github.com/lixenwraith/navcore/async"
	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/vmath"
)

// FindNodesNearest picks the vertices closest to both positions
// With Async set the lookup runs on the nearest_vertex module and FindNodes reports LookupPending
// until the result is published. A published result is consumed by the first call whose positions
// are within Tolerance of the queried ones; otherwise it is dropped and the lookup reissued
type FindNodesNearest struct {
	Async     bool
	Tolerance float64

	module  *async.Module
	owner   async.Owner
	pending uint64
	last    nearestResult
}

type nearestResult struct {
	valid       bool
	from, to    vmath.Vec3F
	start, dest graph.VertexSafePtr
	found       bool
}

// NewFindNodesNearest uses the default reuse tolerance
func NewFindNodesNearest(useAsync bool) *FindNodesNearest {
	return &FindNodesNearest{Async: useAsync, Tolerance: parameter.GoalChangedDistance}
}

func (f *FindNodesNearest) FindNodes(ctx *Context, from, to vmath.Vec3F) (graph.VertexSafePtr, graph.VertexSafePtr, Lookup) {
	if !f.Async {
		start, dest, ok := nearestPair(ctx.Graph, from, to)
		return start, dest, lookupOf(ok)
	}

	if f.last.valid {
		r := f.last
		f.last = nearestResult{}
		if vmath.V3FDist2D(r.from, from) <= f.Tolerance && vmath.V3FDist2D(r.to, to) <= f.Tolerance {
			return r.start, r.dest, lookupOf(r.found)
		}
	}
	if f.pending != 0 && f.owner.Current(f.pending) {
		return graph.VertexSafePtr{}, graph.VertexSafePtr{}, LookupPending
	}

	req := &nearestRequest{owner: f, ticket: f.owner.Issue(), graph: ctx.Graph, from: from, to: to}
	f.pending = req.ticket
	if !async.Dispatch(f.module, req) {
		// Computed in place: the result is already published
		r := f.last
		f.last = nearestResult{}
		return r.start, r.dest, lookupOf(r.found)
	}
	return graph.VertexSafePtr{}, graph.VertexSafePtr{}, LookupPending
}

// Reset makes in-flight lookups stale
func (f *FindNodesNearest) Reset() {
	f.owner.Invalidate()
	f.pending = 0
	f.last = nearestResult{}
}

// AsyncModule implements AsyncUser
func (f *FindNodesNearest) AsyncModule() string {
	return async.ModuleNearestVertex
}

// BindAsync implements AsyncUser
func (f *FindNodesNearest) BindAsync(m *async.Module) {
	f.module = m
}

func nearestPair(g *graph.Graph, from, to vmath.Vec3F) (graph.VertexSafePtr, graph.VertexSafePtr, bool) {
	start, ok := g.FindNearestVertex(from)
	if !ok {
		return start, graph.VertexSafePtr{}, false
	}
	dest, ok := g.FindNearestVertex(to)
	return start, dest, ok
}

func lookupOf(found bool) Lookup {
	if found {
		return LookupFound
	}
	return LookupFailed
}

// nearestRequest runs the lookup on the async worker under the graph read lock
type nearestRequest struct {
	owner  *FindNodesNearest
	ticket uint64
	graph  *graph.Graph

	from, to    vmath.Vec3F
	start, dest graph.VertexSafePtr
	found       bool
}

func (r *nearestRequest) Compute() {
	r.start, r.dest, r.found = nearestPair(r.graph, r.from, r.to)
}

func (r *nearestRequest) Publish() {
	f := r.owner
	if !f.owner.Current(r.ticket) {
		return
	}
	f.pending = 0
	f.last = nearestResult{valid: true, from: r.from, to: r.to, start: r.start, dest: r.dest, found: r.found}
}

// FindNodesReachable picks, for each position, the nearest vertex the configured CanGo can reach
// Up to Candidates vertices within Radius are tried nearest first
type FindNodesReachable struct {
	Radius     float64
	Candidates int

	canGo CanGo
}

// NewFindNodesReachable uses the default search radius
func NewFindNodesReachable() *FindNodesReachable {
	return &FindNodesReachable{Radius: parameter.RefineGoalSearchRadius, Candidates: 8}
}

func (f *FindNodesReachable) FindNodes(ctx *Context, from, to vmath.Vec3F) (graph.VertexSafePtr, graph.VertexSafePtr, Lookup) {
	start, ok := f.reachable(ctx, from, false)
	if !ok {
		return start, graph.VertexSafePtr{}, LookupFailed
	}
	dest, ok := f.reachable(ctx, to, true)
	return start, dest, lookupOf(ok)
}

// reachable checks walkability from pos to the vertex, or from the vertex to pos when toward is set
func (f *FindNodesReachable) reachable(ctx *Context, pos vmath.Vec3F, toward bool) (graph.VertexSafePtr, bool) {
	for _, v := range ctx.Graph.NearestVertices(pos, f.Radius, f.Candidates) {
		p, ok := v.Resolve(ctx.Graph)
		if !ok {
			continue
		}
		vp, _ := ctx.Graph.Position(p)
		a, b := pos, vp
		if toward {
			a, b = vp, pos
		}
		if f.canGo == nil || f.canGo.CanGo(ctx.View, a, b) {
			return v, true
		}
	}
	return graph.VertexSafePtr{}, false
}

func (f *FindNodesReachable) Reset() {}

// UseCanGo implements CanGoUser
func (f *FindNodesReachable) UseCanGo(c CanGo) {
	f.canGo = c
}
