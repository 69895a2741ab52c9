package graph

import (
	"github.com/lixenwraith/navcore/vmath"
)

// Builder assembles cells before streaming them into a Graph
type Builder struct {
	cells []CellData
	index map[CellUID]int
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{index: make(map[CellUID]int)}
}

// Cell starts a new cell and returns its UID
func (b *Builder) Cell() CellUID {
	uid := NewCellUID()
	b.index[uid] = len(b.cells)
	b.cells = append(b.cells, CellData{UID: uid})
	return uid
}

// AddVertex appends a vertex to cell uid
func (b *Builder) AddVertex(uid CellUID, pos vmath.Vec3F) VertexKey {
	c := &b.cells[b.index[uid]]
	c.Positions = append(c.Positions, pos)
	return VertexKey{Cell: uid, Local: int32(len(c.Positions) - 1)}
}

// Position returns the position of a vertex added to this builder
func (b *Builder) Position(k VertexKey) vmath.Vec3F {
	return b.cells[b.index[k.Cell]].Positions[k.Local]
}

// AddEdge adds a directed edge; length is the euclidean distance between endpoints
func (b *Builder) AddEdge(from, to VertexKey, multiplier float32) {
	c := &b.cells[b.index[from.Cell]]
	c.Edges = append(c.Edges, EdgeData{
		From:       from.Local,
		To:         to,
		Length:     float32(vmath.V3FDist(b.Position(from), b.Position(to))),
		Multiplier: multiplier,
	})
}

// AddBiEdge adds edges in both directions with the same multiplier
func (b *Builder) AddBiEdge(a, c VertexKey, multiplier float32) {
	b.AddEdge(a, c, multiplier)
	b.AddEdge(c, a, multiplier)
}

// Cells returns the assembled cell descriptions
func (b *Builder) Cells() []CellData {
	return b.cells
}

// Build streams every cell into a new graph
func (b *Builder) Build(g *Graph) error {
	for _, c := range b.cells {
		if _, err := g.AddCell(c); err != nil {
			return err
		}
	}
	return nil
}
