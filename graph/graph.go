package graph

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/navcore/vmath"
)

// cell is one resident block of vertices
type cell struct {
	uid      CellUID
	vertices []Vertex
	bounds   vmath.AABB2
}

type cellSlot struct {
	gen  uint32
	cell *cell
}

// Graph is the spatial graph, a slot map of streamed cells
// The main thread reads without locking and is the only writer; mutations take the write lock
// so that async readers holding RLockForAsync never observe a partial change
type Graph struct {
	mu       sync.RWMutex
	slots    []cellSlot
	free     []int32
	byUID    map[CellUID]int32
	version  atomic.Uint64
	removals atomic.Uint64
	logger   *slog.Logger
}

// New creates an empty graph
func New(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		byUID:  make(map[CellUID]int32),
		logger: logger.With(slog.String("component", "graph")),
	}
}

// RLockForAsync takes the read lock for a worker-thread read
func (g *Graph) RLockForAsync() { g.mu.RLock() }

// RUnlockForAsync releases the read lock taken by RLockForAsync
func (g *Graph) RUnlockForAsync() { g.mu.RUnlock() }

// Version increments on every structural change (cell streamed in or out)
func (g *Graph) Version() uint64 {
	return g.version.Load()
}

// Removals increments every time a cell streams out, invalidating raw pointers into it
func (g *Graph) Removals() uint64 {
	return g.removals.Load()
}

// SlotCount returns the number of slots ever allocated; slot indices are below it
func (g *Graph) SlotCount() int {
	return len(g.slots)
}

// CellCount returns the number of resident cells
func (g *Graph) CellCount() int {
	return len(g.byUID)
}

// --- Streaming ---

// AddCell streams a cell in
// Edges into cells that are not resident are kept and resolve once the target streams in
func (g *Graph) AddCell(data CellData) (CellHandle, error) {
	if data.UID.IsZero() {
		return CellHandle{}, fmt.Errorf("add cell: %w", ErrBadVertex)
	}

	c := &cell{
		uid:      data.UID,
		vertices: make([]Vertex, len(data.Positions)),
		bounds:   vmath.EmptyAABB2(),
	}
	for i, p := range data.Positions {
		c.vertices[i].Position = p
		c.bounds = c.bounds.Extend(vmath.V3FXY(p))
	}
	for _, e := range data.Edges {
		if e.From < 0 || int(e.From) >= len(c.vertices) {
			return CellHandle{}, fmt.Errorf("add cell %s edge from %d: %w", data.UID, e.From, ErrBadVertex)
		}
		v := &c.vertices[e.From]
		v.Edges = append(v.Edges, Edge{
			To:         SafePtrOf(e.To),
			Length:     e.Length,
			Multiplier: e.Multiplier,
		})
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.byUID[data.UID]; ok {
		return CellHandle{}, fmt.Errorf("add cell %s: %w", data.UID, ErrCellResident)
	}

	var idx int32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		idx = int32(len(g.slots))
		g.slots = append(g.slots, cellSlot{gen: 1})
	}
	g.slots[idx].cell = c
	g.byUID[data.UID] = idx
	h := CellHandle{Index: idx, Gen: g.slots[idx].gen}

	g.refreshCachesLocked()
	g.version.Add(1)
	g.logger.Debug("cell streamed in", slog.String("cell", data.UID.String()), slog.Int("vertices", len(c.vertices)))
	return h, nil
}

// RemoveCell streams a cell out; raw pointers into it become invalid
func (g *Graph) RemoveCell(uid CellUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.byUID[uid]
	if !ok {
		return false
	}
	delete(g.byUID, uid)
	g.slots[idx].cell = nil
	g.slots[idx].gen++
	g.free = append(g.free, idx)

	g.version.Add(1)
	g.removals.Add(1)
	g.logger.Debug("cell streamed out", slog.String("cell", uid.String()))
	return true
}

// refreshCachesLocked re-resolves every edge target cache after a cell streamed in
func (g *Graph) refreshCachesLocked() {
	for i := range g.slots {
		c := g.slots[i].cell
		if c == nil {
			continue
		}
		for vi := range c.vertices {
			edges := c.vertices[vi].Edges
			for ei := range edges {
				to := &edges[ei].To
				if g.cacheValid(to.Cell, to.cache) {
					continue
				}
				if idx, ok := g.byUID[to.Cell]; ok {
					to.cache = VertexPtr{Cell: CellHandle{Index: idx, Gen: g.slots[idx].gen}, Local: to.Local}
				}
			}
		}
	}
}

// --- Resolution ---

func (g *Graph) cellAt(h CellHandle) *cell {
	if h.Index < 0 || int(h.Index) >= len(g.slots) {
		return nil
	}
	s := &g.slots[h.Index]
	if s.gen != h.Gen {
		return nil
	}
	return s.cell
}

// cacheValid reports whether a cached raw pointer still designates the cell uid
func (g *Graph) cacheValid(uid CellUID, p VertexPtr) bool {
	c := g.cellAt(p.Cell)
	return c != nil && c.uid == uid && p.Local >= 0 && int(p.Local) < len(c.vertices)
}

// Valid reports whether p designates a resident vertex
func (g *Graph) Valid(p VertexPtr) bool {
	c := g.cellAt(p.Cell)
	return c != nil && p.Local >= 0 && int(p.Local) < len(c.vertices)
}

// Resolve looks a stable key up in the resident cells
func (g *Graph) Resolve(k VertexKey) (VertexPtr, bool) {
	idx, ok := g.byUID[k.Cell]
	if !ok {
		return VertexPtr{}, false
	}
	p := VertexPtr{Cell: CellHandle{Index: idx, Gen: g.slots[idx].gen}, Local: k.Local}
	if !g.Valid(p) {
		return VertexPtr{}, false
	}
	return p, true
}

// Key returns the stable identity of a resident vertex
func (g *Graph) Key(p VertexPtr) (VertexKey, bool) {
	c := g.cellAt(p.Cell)
	if c == nil || p.Local < 0 || int(p.Local) >= len(c.vertices) {
		return VertexKey{}, false
	}
	return VertexKey{Cell: c.uid, Local: p.Local}, true
}

// SafePtr converts a raw pointer into a safe pointer with a warm cache
func (g *Graph) SafePtr(p VertexPtr) (VertexSafePtr, bool) {
	k, ok := g.Key(p)
	if !ok {
		return VertexSafePtr{}, false
	}
	return VertexSafePtr{Cell: k.Cell, Local: k.Local, cache: p}, true
}

// Vertex returns the resident vertex
func (g *Graph) Vertex(p VertexPtr) (*Vertex, bool) {
	if !g.Valid(p) {
		return nil, false
	}
	return &g.slots[p.Cell.Index].cell.vertices[p.Local], true
}

// Position returns the vertex position
func (g *Graph) Position(p VertexPtr) (vmath.Vec3F, bool) {
	v, ok := g.Vertex(p)
	if !ok {
		return vmath.Vec3F{}, false
	}
	return v.Position, true
}

// Edges returns the outgoing edges of p, nil when p is invalid
func (g *Graph) Edges(p VertexPtr) []Edge {
	v, ok := g.Vertex(p)
	if !ok {
		return nil
	}
	return v.Edges
}

// EdgeTarget resolves the target of e without writing to the graph
func (g *Graph) EdgeTarget(e *Edge) (VertexPtr, bool) {
	if g.cacheValid(e.To.Cell, e.To.cache) {
		return e.To.cache, true
	}
	return g.Resolve(e.To.Key())
}

// Edge returns the edge designated by a raw edge pointer
func (g *Graph) Edge(e EdgePtr) (*Edge, bool) {
	v, ok := g.Vertex(e.From)
	if !ok || e.Index < 0 || int(e.Index) >= len(v.Edges) {
		return nil, false
	}
	return &v.Edges[e.Index], true
}

// FindEdge returns the edge from -> to identified by key
func (g *Graph) FindEdge(k EdgeKey) (EdgePtr, bool) {
	from, ok := g.Resolve(k.From)
	if !ok {
		return EdgePtr{}, false
	}
	edges := g.Edges(from)
	for i := range edges {
		if edges[i].To.Key() == k.To {
			return EdgePtr{From: from, Index: int32(i)}, true
		}
	}
	return EdgePtr{}, false
}

// --- Queries ---

// ForEachVertex visits every resident vertex
func (g *Graph) ForEachVertex(fn func(p VertexPtr, v *Vertex)) {
	for i := range g.slots {
		s := &g.slots[i]
		if s.cell == nil {
			continue
		}
		for li := range s.cell.vertices {
			fn(VertexPtr{Cell: CellHandle{Index: int32(i), Gen: s.gen}, Local: int32(li)}, &s.cell.vertices[li])
		}
	}
}

// VertexCount returns the number of resident vertices
func (g *Graph) VertexCount() int {
	n := 0
	for i := range g.slots {
		if c := g.slots[i].cell; c != nil {
			n += len(c.vertices)
		}
	}
	return n
}

// FindNearestVertex returns the resident vertex closest to pos
// Cells whose planar bounds are farther than the best candidate are skipped
func (g *Graph) FindNearestVertex(pos vmath.Vec3F) (VertexSafePtr, bool) {
	best := math.Inf(1)
	var bestPtr VertexPtr
	found := false
	p2 := vmath.V3FXY(pos)

	for i := range g.slots {
		s := &g.slots[i]
		if s.cell == nil || len(s.cell.vertices) == 0 {
			continue
		}
		if found && boundsDist(s.cell.bounds, p2) > best {
			continue
		}
		for li := range s.cell.vertices {
			d := vmath.V3FDist(pos, s.cell.vertices[li].Position)
			if d < best {
				best = d
				bestPtr = VertexPtr{Cell: CellHandle{Index: int32(i), Gen: s.gen}, Local: int32(li)}
				found = true
			}
		}
	}
	if !found {
		return VertexSafePtr{}, false
	}
	return g.SafePtr(bestPtr)
}

// NearestVertices returns up to limit resident vertices within radius of pos, nearest first
func (g *Graph) NearestVertices(pos vmath.Vec3F, radius float64, limit int) []VertexSafePtr {
	type cand struct {
		ptr  VertexPtr
		dist float64
	}
	var cands []cand
	p2 := vmath.V3FXY(pos)
	for i := range g.slots {
		s := &g.slots[i]
		if s.cell == nil || boundsDist(s.cell.bounds, p2) > radius {
			continue
		}
		for li := range s.cell.vertices {
			if d := vmath.V3FDist(pos, s.cell.vertices[li].Position); d <= radius {
				cands = append(cands, cand{VertexPtr{Cell: CellHandle{Index: int32(i), Gen: s.gen}, Local: int32(li)}, d})
			}
		}
	}
	slices.SortStableFunc(cands, func(a, b cand) int { return cmp.Compare(a.dist, b.dist) })
	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]VertexSafePtr, 0, len(cands))
	for _, c := range cands {
		if sp, ok := g.SafePtr(c.ptr); ok {
			out = append(out, sp)
		}
	}
	return out
}

// boundsDist is the planar distance from p to box b, a lower bound on 3D distance
func boundsDist(b vmath.AABB2, p vmath.Vec2F) float64 {
	dx := math.Max(0, math.Max(b.Min.X-p.X, p.X-b.Max.X))
	dy := math.Max(0, math.Max(b.Min.Y-p.Y, p.Y-b.Max.Y))
	return math.Hypot(dx, dy)
}
