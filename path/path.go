package path

import (
	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/vmath"
)

// Node is one waypoint of a Path
type Node struct {
	Vertex   graph.VertexSafePtr
	Position vmath.Vec3F
	// Incoming is the edge used to reach this node; unset on the first node
	Incoming    graph.EdgeKey
	HasIncoming bool
	// Cost is the accumulated search cost from the first node
	Cost float32
}

// Path is an ordered sequence of waypoints walked forward by a path finder
type Path struct {
	Nodes []Node
	// Goal is the refined destination the path was computed for
	Goal vmath.Vec3F

	current int
}

// New creates a path positioned on its first node
func New(nodes []Node, goal vmath.Vec3F) *Path {
	return &Path{Nodes: nodes, Goal: goal}
}

// Len returns the number of nodes
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Nodes)
}

// Empty reports whether the path has no nodes
func (p *Path) Empty() bool {
	return p.Len() == 0
}

// TotalCost returns the search cost of the whole path
func (p *Path) TotalCost() float32 {
	if p.Empty() {
		return 0
	}
	return p.Nodes[len(p.Nodes)-1].Cost
}

// CurrentIndex returns the index of the node being walked to
func (p *Path) CurrentIndex() int {
	return p.current
}

// Current returns the node being walked to
func (p *Path) Current() (*Node, bool) {
	if p == nil || p.current >= len(p.Nodes) {
		return nil, false
	}
	return &p.Nodes[p.current], true
}

// Previous returns the node walked from, false on the first node
func (p *Path) Previous() (*Node, bool) {
	if p == nil || p.current == 0 || p.current > len(p.Nodes) {
		return nil, false
	}
	return &p.Nodes[p.current-1], true
}

// Last returns the final node
func (p *Path) Last() (*Node, bool) {
	if p.Empty() {
		return nil, false
	}
	return &p.Nodes[len(p.Nodes)-1], true
}

// IsLast reports whether the current node is the final node
func (p *Path) IsLast() bool {
	return !p.Empty() && p.current == len(p.Nodes)-1
}

// Advance moves to the next node; returns false when already on the last one
func (p *Path) Advance() bool {
	if p == nil || p.current >= len(p.Nodes)-1 {
		return false
	}
	p.current++
	return true
}

// Remaining returns the nodes from the current one onward
func (p *Path) Remaining() []Node {
	if p == nil || p.current >= len(p.Nodes) {
		return nil
	}
	return p.Nodes[p.current:]
}

// RemainingEdges returns the edges still to be traversed, including the one leading to the current node
func (p *Path) RemainingEdges() []graph.EdgeKey {
	rem := p.Remaining()
	out := make([]graph.EdgeKey, 0, len(rem))
	for i := range rem {
		if rem[i].HasIncoming {
			out = append(out, rem[i].Incoming)
		}
	}
	return out
}

// CurrentEdge returns the edge the bot is walking along
func (p *Path) CurrentEdge() (graph.EdgeKey, bool) {
	n, ok := p.Current()
	if !ok || !n.HasIncoming {
		return graph.EdgeKey{}, false
	}
	return n.Incoming, true
}

// Validate resolves every remaining node; false means a vertex no longer exists
func (p *Path) Validate(g *graph.Graph) bool {
	if p == nil {
		return false
	}
	for i := p.current; i < len(p.Nodes); i++ {
		if _, ok := p.Nodes[i].Vertex.Resolve(g); !ok {
			return false
		}
	}
	return true
}

// DistanceToSegment returns the planar distance from pos to the segment previous -> current
// On the first node it is the distance to that node
func (p *Path) DistanceToSegment(pos vmath.Vec3F) float64 {
	cur, ok := p.Current()
	if !ok {
		return 0
	}
	prev, ok := p.Previous()
	if !ok {
		return vmath.V3FDist2D(pos, cur.Position)
	}
	return vmath.DistPointSegment(vmath.V3FXY(pos), vmath.V3FXY(prev.Position), vmath.V3FXY(cur.Position))
}

// Positions returns the node positions, useful for rendering and logging
func (p *Path) Positions() []vmath.Vec3F {
	out := make([]vmath.Vec3F, p.Len())
	for i := range out {
		out[i] = p.Nodes[i].Position
	}
	return out
}
