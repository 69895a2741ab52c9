package astar

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/maze"
	"github.com/lixenwraith/navcore/status"
	"github.com/lixenwraith/navcore/vmath"
)

func loadGrid(t *testing.T, w, h, cellSize int, blocked graph.WallChecker) (*graph.Graph, *graph.Grid) {
	t.Helper()
	gr := graph.BuildGrid(w, h, 1, cellSize, blocked)
	g := graph.New(nil)
	if err := gr.Load(g); err != nil {
		t.Fatalf("load grid: %v", err)
	}
	return g, gr
}

func TestGridCornerToCorner(t *testing.T) {
	g, gr := loadGrid(t, 5, 5, 2, nil)
	reg := status.NewRegistry()

	tr := New(g, Options{Status: reg})
	if err := tr.Start(gr.SafePtr(0, 0), gr.SafePtr(4, 4)); err != nil {
		t.Fatal(err)
	}
	if tr.State() != StateStarted {
		t.Errorf("Expected started, got %s", tr.State())
	}
	if st := tr.Propagate(engine.Unlimited()); st != StatusPathFound {
		t.Fatalf("Expected path found, got %s (%v)", st, tr.Err())
	}
	p, err := tr.BuildPath()
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 9 {
		t.Errorf("Expected 9 path vertices, got %d", p.Len())
	}
	if p.TotalCost() != 8 {
		t.Errorf("Expected cost 8, got %v", p.TotalCost())
	}
	first, _ := p.Current()
	last, _ := p.Last()
	if first.Position != gr.Position(0, 0) || last.Position != gr.Position(4, 4) {
		t.Errorf("Path endpoints wrong: %v .. %v", first.Position, last.Position)
	}
	for i := 1; i < p.Len(); i++ {
		if d := vmath.V3FDist(p.Nodes[i-1].Position, p.Nodes[i].Position); d != 1 {
			t.Errorf("Consecutive nodes %d,%d are %v apart", i-1, i, d)
		}
		if p.Nodes[i].Incoming.To != p.Nodes[i].Vertex.Key() {
			t.Errorf("Incoming edge of node %d does not end at it", i)
		}
	}
	if reg.Ints.Get("astar.found").Load() != 1 {
		t.Errorf("Expected found counter 1")
	}

	tr.Cancel()
	if tr.State() != StateIdle {
		t.Errorf("Cancel should return to idle")
	}
	if _, err := tr.BuildPath(); !errors.Is(err, ErrNotFound) {
		t.Errorf("BuildPath while idle should fail with ErrNotFound, got %v", err)
	}
}

func TestBlockedEdgeDetour(t *testing.T) {
	g, gr := loadGrid(t, 5, 5, 0, nil)
	blocked := map[graph.EdgeKey]bool{
		gr.EdgeKey(2, 2, 2, 3): true,
		gr.EdgeKey(2, 3, 2, 2): true,
	}
	filter := EdgeFilterFunc(func(k graph.EdgeKey, _, _ vmath.Vec3F) bool { return blocked[k] })

	// Corner to corner still has cost-8 routes that avoid the edge
	p, err := Search(g, gr.SafePtr(0, 0), gr.SafePtr(4, 4), Options{Filter: filter})
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalCost() != 8 {
		t.Errorf("Expected cost 8 around the edge, got %v", p.TotalCost())
	}
	for _, k := range p.RemainingEdges() {
		if blocked[k] {
			t.Errorf("Path uses the blocked edge")
		}
	}

	// Straight column through the edge must detour
	p, err = Search(g, gr.SafePtr(2, 0), gr.SafePtr(2, 4), Options{Filter: filter})
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalCost() <= 4 {
		t.Errorf("Expected cost above 4 with the edge blocked, got %v", p.TotalCost())
	}
	if p.TotalCost() != 6 {
		t.Errorf("Expected detour cost 6, got %v", p.TotalCost())
	}
}

func TestSearchFailure(t *testing.T) {
	// Column x=2 is a wall: left and right halves are disconnected
	g, gr := loadGrid(t, 5, 5, 2, func(x, _ int) bool { return x == 2 })

	tr := New(g, Options{})
	_ = tr.Start(gr.SafePtr(0, 0), gr.SafePtr(4, 4))
	if st := tr.Propagate(nil); st != StatusFailed {
		t.Fatalf("Expected failure, got %s", st)
	}
	if !errors.Is(tr.Err(), ErrNoPath) {
		t.Errorf("Expected ErrNoPath, got %v", tr.Err())
	}
	if tr.Propagate(nil) != StatusFailed {
		t.Errorf("Failed traversal should keep reporting failure")
	}

	var missing graph.VertexSafePtr
	if err := tr.Start(missing, gr.SafePtr(4, 4)); !errors.Is(err, ErrBadHandle) {
		t.Errorf("Expected ErrBadHandle, got %v", err)
	}
	if tr.State() != StateFailed {
		t.Errorf("Bad handle should leave the traversal failed")
	}
}

func TestStartEqualsDestination(t *testing.T) {
	g, gr := loadGrid(t, 3, 3, 0, nil)
	p, err := Search(g, gr.SafePtr(1, 1), gr.SafePtr(1, 1), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 1 || p.TotalCost() != 0 {
		t.Errorf("Expected single node path of cost 0, got len=%d cost=%v", p.Len(), p.TotalCost())
	}
}

func TestGraphChangedDuringSearch(t *testing.T) {
	g, gr := loadGrid(t, 8, 8, 4, nil)
	tr := New(g, Options{})
	_ = tr.Start(gr.SafePtr(0, 0), gr.SafePtr(7, 7))
	if st := tr.Propagate(engine.Units(3)); st != StatusInProgress {
		t.Fatalf("Expected in progress, got %s", st)
	}

	g.RemoveCell(gr.CellAt(7, 0).UID)
	if st := tr.Propagate(engine.Unlimited()); st != StatusFailed {
		t.Fatalf("Expected failure after streaming, got %s", st)
	}
	if !errors.Is(tr.Err(), ErrGraphChanged) {
		t.Errorf("Expected ErrGraphChanged, got %v", tr.Err())
	}

	// A new search after the change works on the remaining cells
	if err := tr.Start(gr.SafePtr(0, 0), gr.SafePtr(7, 7)); err != nil {
		t.Fatal(err)
	}
	if tr.Propagate(nil) != StatusPathFound {
		t.Errorf("Search after streaming should succeed, got %v", tr.Err())
	}
}

// zeroBias makes every tie explicit
type zeroBias struct{}

func (zeroBias) Heuristic(_, _ vmath.Vec3F) float32                { return 0 }
func (zeroBias) EdgeCost(_ graph.VertexPtr, e *graph.Edge) float32 { return e.Multiplier }

func TestLifoTieBreak(t *testing.T) {
	b := graph.NewBuilder()
	c := b.Cell()
	s := b.AddVertex(c, vmath.Vec3F{X: 0})
	a := b.AddVertex(c, vmath.Vec3F{X: 1, Y: 1})
	bb := b.AddVertex(c, vmath.Vec3F{X: 1, Y: -1})
	d := b.AddVertex(c, vmath.Vec3F{X: 2})
	b.AddEdge(s, a, 1)
	b.AddEdge(s, bb, 1)
	b.AddEdge(a, d, 1)
	b.AddEdge(bb, d, 1)
	g := graph.New(nil)
	if err := b.Build(g); err != nil {
		t.Fatal(err)
	}

	p, err := Search(g, graph.SafePtrOf(s), graph.SafePtrOf(d), Options{Bias: zeroBias{}})
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 3 || p.Nodes[1].Vertex.Key() != bb {
		t.Errorf("Equal f must prefer the most recently inserted vertex (b), got %v", p.Nodes[1].Vertex.Key())
	}
}

// tableBias is admissible but inconsistent, forcing a closed vertex to be re-opened
type tableBias map[float64]float32

func (b tableBias) Heuristic(from, _ vmath.Vec3F) float32           { return b[from.X] }
func (tableBias) EdgeCost(_ graph.VertexPtr, e *graph.Edge) float32 { return e.Multiplier }

func TestReopenOnStrictImprovement(t *testing.T) {
	b := graph.NewBuilder()
	c := b.Cell()
	s := b.AddVertex(c, vmath.Vec3F{X: 0})
	a := b.AddVertex(c, vmath.Vec3F{X: 1})
	bv := b.AddVertex(c, vmath.Vec3F{X: 2})
	goal := b.AddVertex(c, vmath.Vec3F{X: 3})
	b.AddEdge(s, a, 4)
	b.AddEdge(s, bv, 1)
	b.AddEdge(bv, a, 1)
	b.AddEdge(a, goal, 5)
	g := graph.New(nil)
	if err := b.Build(g); err != nil {
		t.Fatal(err)
	}

	bias := tableBias{0: 0, 1: 0, 2: 5, 3: 0}
	tr := New(g, Options{Bias: bias})
	_ = tr.Start(graph.SafePtrOf(s), graph.SafePtrOf(goal))
	if tr.Propagate(nil) != StatusPathFound {
		t.Fatal(tr.Err())
	}
	cost, _ := tr.Cost()
	if cost != 7 {
		t.Errorf("Expected optimal cost 7 after re-opening, got %v", cost)
	}
	if tr.Stats().Reopened != 1 {
		t.Errorf("Expected one re-opened vertex, got %d", tr.Stats().Reopened)
	}
}

// randomGraph builds a geometric graph with multipliers >= 1 so DistanceBias stays admissible
func randomGraph(rng *rand.Rand, n, k int) (*graph.Graph, []graph.VertexKey) {
	b := graph.NewBuilder()
	cells := []graph.CellUID{b.Cell(), b.Cell(), b.Cell()}
	keys := make([]graph.VertexKey, n)
	pos := make([]vmath.Vec3F, n)
	for i := range keys {
		pos[i] = vmath.Vec3F{X: rng.Float64() * 20, Y: rng.Float64() * 20}
		keys[i] = b.AddVertex(cells[i%len(cells)], pos[i])
	}
	for i := range keys {
		order := make([]int, 0, n-1)
		for j := range keys {
			if j != i {
				order = append(order, j)
			}
		}
		sort.Slice(order, func(a, c int) bool {
			return vmath.V3FDist(pos[i], pos[order[a]]) < vmath.V3FDist(pos[i], pos[order[c]])
		})
		for _, j := range order[:k] {
			b.AddEdge(keys[i], keys[j], 1+2*rng.Float32())
		}
	}
	g := graph.New(nil)
	_ = b.Build(g)
	return g, keys
}

func TestOptimalityAgainstDijkstra(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 20; trial++ {
		g, keys := randomGraph(rng, 60, 4)
		src := graph.SafePtrOf(keys[rng.Intn(len(keys))])
		from, _ := src.Resolve(g)
		ref := graph.DijkstraCosts(g, from, nil)

		for q := 0; q < 5; q++ {
			dk := keys[rng.Intn(len(keys))]
			want, reachable := ref[dk]
			p, err := Search(g, src, graph.SafePtrOf(dk), Options{})
			if !reachable {
				if !errors.Is(err, ErrNoPath) {
					t.Errorf("trial %d: expected ErrNoPath for unreachable destination, got %v", trial, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("trial %d: search failed on reachable destination: %v", trial, err)
			}
			got := float64(p.TotalCost())
			if math.Abs(got-want) > 1e-3*math.Max(1, want) {
				t.Errorf("trial %d: A* cost %v, Dijkstra %v", trial, got, want)
			}
		}
	}
}

func TestOptimalityOnMazes(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		l := maze.Generate(maze.Config{Width: 25, Height: 25, Braiding: 0.4, Seed: seed})
		g, gr := loadGrid(t, l.Width, l.Height, 6, l.Blocked)
		p, err := Search(g, gr.SafePtr(l.Start.X, l.Start.Y), gr.SafePtr(l.End.X, l.End.Y), Options{})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if want := l.ShortestSteps(l.Start, l.End); int(p.TotalCost()) != want {
			t.Errorf("seed %d: A* cost %v, BFS steps %d", seed, p.TotalCost(), want)
		}
	}
}

func TestSlicingInvariance(t *testing.T) {
	l := maze.Generate(maze.Config{Width: 31, Height: 31, Braiding: 0.5, Seed: 9})
	g, gr := loadGrid(t, l.Width, l.Height, 8, l.Blocked)
	start, dest := gr.SafePtr(l.Start.X, l.Start.Y), gr.SafePtr(l.End.X, l.End.Y)

	run := func(slice int) ([]graph.VertexKey, int) {
		tr := New(g, Options{})
		_ = tr.Start(start, dest)
		calls := 0
		for {
			calls++
			st := tr.Propagate(engine.Units(slice))
			if st == StatusInProgress {
				continue
			}
			if st != StatusPathFound {
				t.Fatalf("slice %d: %v", slice, tr.Err())
			}
			break
		}
		p, _ := tr.BuildPath()
		keys := make([]graph.VertexKey, p.Len())
		for i := range p.Nodes {
			keys[i] = p.Nodes[i].Vertex.Key()
		}
		return keys, calls
	}

	ref, refCalls := run(1 << 30)
	if refCalls != 1 {
		t.Errorf("Unlimited slice should finish in one call, took %d", refCalls)
	}
	for _, slice := range []int{1, 3, 17, 40} {
		got, calls := run(slice)
		if calls < 2 {
			t.Errorf("slice %d: expected the search to span several calls", slice)
		}
		if len(got) != len(ref) {
			t.Fatalf("slice %d: path length %d, want %d", slice, len(got), len(ref))
		}
		for i := range ref {
			if got[i] != ref[i] {
				t.Fatalf("slice %d: path differs at node %d", slice, i)
			}
		}
	}
}

func TestAstarIdAvoidsReset(t *testing.T) {
	g, gr := loadGrid(t, 6, 6, 3, nil)
	tr := New(g, Options{})

	_ = tr.Start(gr.SafePtr(0, 0), gr.SafePtr(5, 5))
	tr.Propagate(nil)
	first := tr.AstarID()
	origin := gr.SafePtr(0, 0)
	ptr, _ := origin.Resolve(g)
	if !tr.Closed(ptr) {
		t.Fatalf("Origin should be closed after the first search")
	}

	_ = tr.Start(gr.SafePtr(5, 5), gr.SafePtr(5, 4))
	if tr.AstarID() != first+1 {
		t.Errorf("Each search should take a new AstarId")
	}
	if tr.Closed(ptr) {
		t.Errorf("Marks of the previous search must read as unvisited")
	}
}
