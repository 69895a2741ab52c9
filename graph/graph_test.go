package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/lixenwraith/navcore/vmath"
)

func TestGridLayout(t *testing.T) {
	gr := BuildGrid(5, 5, 1, 2, nil)
	if len(gr.Cells()) != 9 {
		t.Fatalf("Expected 3x3 cells for 5x5 grid with cell size 2, got %d", len(gr.Cells()))
	}

	g := New(nil)
	if err := gr.Load(g); err != nil {
		t.Fatalf("load: %v", err)
	}
	if g.VertexCount() != 25 {
		t.Errorf("Expected 25 vertices, got %d", g.VertexCount())
	}

	sp := gr.SafePtr(2, 2)
	p, ok := sp.Resolve(g)
	if !ok {
		t.Fatalf("center vertex should resolve")
	}
	if got := len(g.Edges(p)); got != 4 {
		t.Errorf("Center vertex should have 4 edges, got %d", got)
	}
	csp := gr.SafePtr(0, 0)
	corner, _ := csp.Resolve(g)
	if got := len(g.Edges(corner)); got != 2 {
		t.Errorf("Corner vertex should have 2 edges, got %d", got)
	}

	pos, _ := g.Position(p)
	if pos != (vmath.Vec3F{X: 2, Y: 2}) {
		t.Errorf("Unexpected position %v", pos)
	}
}

func TestGridBlocked(t *testing.T) {
	gr := BuildGrid(3, 3, 1, 0, func(x, y int) bool { return x == 1 && y == 1 })
	if _, ok := gr.Key(1, 1); ok {
		t.Errorf("Blocked coordinate should have no vertex")
	}
	g := New(nil)
	if err := gr.Load(g); err != nil {
		t.Fatal(err)
	}
	if g.VertexCount() != 8 {
		t.Errorf("Expected 8 vertices, got %d", g.VertexCount())
	}
}

func TestStreamingInvalidatesHandles(t *testing.T) {
	gr := BuildGrid(4, 4, 1, 2, nil)
	g := New(nil)
	if err := gr.Load(g); err != nil {
		t.Fatal(err)
	}

	sp := gr.SafePtr(3, 3)
	raw, ok := sp.Resolve(g)
	if !ok {
		t.Fatal("resolve before streaming")
	}
	v0 := g.Version()

	cellData := gr.CellAt(3, 3)
	if !g.RemoveCell(cellData.UID) {
		t.Fatal("remove cell")
	}
	if g.Version() == v0 {
		t.Errorf("Version should change on streaming")
	}
	if g.Valid(raw) {
		t.Errorf("Raw pointer must be invalid after its cell streamed out")
	}
	if _, ok := sp.Resolve(g); ok {
		t.Errorf("Safe pointer must fail to resolve while its cell is out")
	}
	if _, ok := g.Position(raw); ok {
		t.Errorf("Position of an invalid pointer must fail")
	}
	if g.Edges(raw) != nil {
		t.Errorf("Edges of an invalid pointer must be nil")
	}

	// Edge from (1,3) into the removed cell no longer resolves
	fsp := gr.SafePtr(1, 3)
	from, _ := fsp.Resolve(g)
	into := 0
	for _, e := range g.Edges(from) {
		if _, ok := g.EdgeTarget(&e); ok {
			into++
		}
	}
	if into != 2 {
		t.Errorf("Expected 2 resolvable edges from (1,3) while (2,3) is out, got %d", into)
	}

	if _, err := g.AddCell(cellData); err != nil {
		t.Fatalf("stream back in: %v", err)
	}
	raw2, ok := sp.Resolve(g)
	if !ok {
		t.Fatalf("Safe pointer should resolve after streaming back in")
	}
	if raw2 == raw {
		t.Errorf("Re-streamed cell should carry a new generation")
	}
	into = 0
	for _, e := range g.Edges(from) {
		if _, ok := g.EdgeTarget(&e); ok {
			into++
		}
	}
	if into != 3 {
		t.Errorf("Expected 3 resolvable edges after streaming back in, got %d", into)
	}

	if _, err := g.AddCell(cellData); !errors.Is(err, ErrCellResident) {
		t.Errorf("Expected ErrCellResident, got %v", err)
	}
}

func TestZeroSafePtr(t *testing.T) {
	g := New(nil)
	var sp VertexSafePtr
	if _, ok := sp.Resolve(g); ok {
		t.Errorf("Zero safe pointer must not resolve")
	}
	if g.Valid(VertexPtr{}) {
		t.Errorf("Zero raw pointer must not be valid")
	}
}

func TestFindNearestVertex(t *testing.T) {
	gr := BuildGrid(6, 6, 2, 3, nil)
	g := New(nil)
	if err := gr.Load(g); err != nil {
		t.Fatal(err)
	}
	sp, ok := g.FindNearestVertex(vmath.Vec3F{X: 6.7, Y: 3.2})
	if !ok {
		t.Fatal("no nearest vertex")
	}
	x, y, _ := gr.Coord(sp.Key())
	if x != 3 || y != 2 {
		t.Errorf("Expected nearest (3,2), got (%d,%d)", x, y)
	}

	if _, ok := New(nil).FindNearestVertex(vmath.Vec3F{}); ok {
		t.Errorf("Empty graph has no nearest vertex")
	}
}

func TestFindEdge(t *testing.T) {
	gr := BuildGrid(3, 3, 1, 0, nil)
	g := New(nil)
	if err := gr.Load(g); err != nil {
		t.Fatal(err)
	}
	ep, ok := g.FindEdge(gr.EdgeKey(0, 0, 1, 0))
	if !ok {
		t.Fatal("edge (0,0)-(1,0) missing")
	}
	e, _ := g.Edge(ep)
	if e.Cost() != 1 {
		t.Errorf("Expected unit cost, got %v", e.Cost())
	}
	if _, ok := g.FindEdge(gr.EdgeKey(0, 0, 1, 1)); ok {
		t.Errorf("Diagonal edge should not exist")
	}
}

func TestDijkstraCosts(t *testing.T) {
	gr := BuildGrid(5, 5, 1, 2, nil)
	g := New(nil)
	if err := gr.Load(g); err != nil {
		t.Fatal(err)
	}
	sp := gr.SafePtr(0, 0)
	from, _ := sp.Resolve(g)
	dist := DijkstraCosts(g, from, nil)

	k, _ := gr.Key(4, 4)
	if dist[k] != 8 {
		t.Errorf("Expected cost 8 to opposite corner, got %v", dist[k])
	}

	// Block one edge direction and check the cost to its target grows
	blocked := gr.EdgeKey(2, 2, 2, 3)
	cost := func(p VertexPtr, e *Edge) float64 {
		fk, _ := g.Key(p)
		if (EdgeKey{From: fk, To: e.To.Key()}) == blocked {
			return math.Inf(1)
		}
		return float64(e.Cost())
	}
	c := gr.SafePtr(2, 0)
	start, _ := c.Resolve(g)
	dist = DijkstraCosts(g, start, cost)
	k, _ = gr.Key(2, 4)
	if dist[k] != 6 {
		t.Errorf("Expected detour cost 6 around the blocked edge, got %v", dist[k])
	}
}
