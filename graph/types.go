package graph

import (
	"errors"

	"github.com/google/uuid"

	"github.com/lixenwraith/navcore/vmath"
)

var (
	// ErrCellResident is returned when a cell with the same UID is already streamed in
	ErrCellResident = errors.New("cell already resident")
	// ErrBadVertex is returned for vertex references outside a cell
	ErrBadVertex = errors.New("vertex out of range")
)

// CellUID is the stable identity of a graph cell, survives streaming out and back in
type CellUID uuid.UUID

// NewCellUID returns a random cell identity
func NewCellUID() CellUID {
	return CellUID(uuid.New())
}

func (u CellUID) String() string {
	return uuid.UUID(u).String()
}

// IsZero reports whether u is the nil UID
func (u CellUID) IsZero() bool {
	return uuid.UUID(u) == uuid.Nil
}

// CellHandle is a generation-checked slot reference, valid while the cell stays resident
type CellHandle struct {
	Index int32
	Gen   uint32
}

// VertexPtr is a raw vertex reference, valid only while its cell is resident
// The zero value is never valid
type VertexPtr struct {
	Cell  CellHandle
	Local int32
}

// VertexKey is the comparable stable identity of a vertex
type VertexKey struct {
	Cell  CellUID
	Local int32
}

// VertexSafePtr references a vertex by stable identity and caches the resolved raw pointer
// A safe pointer that fails to resolve is invalid; operations on it are no-ops returning failure
type VertexSafePtr struct {
	Cell  CellUID
	Local int32

	cache VertexPtr
}

// SafePtrOf builds an unresolved safe pointer from a key
func SafePtrOf(k VertexKey) VertexSafePtr {
	return VertexSafePtr{Cell: k.Cell, Local: k.Local}
}

// Key returns the stable identity
func (p VertexSafePtr) Key() VertexKey {
	return VertexKey{Cell: p.Cell, Local: p.Local}
}

// IsZero reports whether p references nothing
func (p VertexSafePtr) IsZero() bool {
	return p.Cell.IsZero()
}

// Resolve returns the raw pointer, refreshing the cache when the cell was re-streamed
func (p *VertexSafePtr) Resolve(g *Graph) (VertexPtr, bool) {
	if p.IsZero() {
		return VertexPtr{}, false
	}
	if g.cacheValid(p.Cell, p.cache) {
		return p.cache, true
	}
	v, ok := g.Resolve(p.Key())
	if !ok {
		return VertexPtr{}, false
	}
	p.cache = v
	return v, true
}

// Edge is a directed edge stored on its source vertex
type Edge struct {
	To         VertexSafePtr
	Length     float32
	Multiplier float32
}

// Cost returns length scaled by the multiplier
func (e *Edge) Cost() float32 {
	return e.Length * e.Multiplier
}

// EdgePtr is a raw edge reference: source vertex and index into its edge list
type EdgePtr struct {
	From  VertexPtr
	Index int32
}

// EdgeKey is the comparable stable identity of a directed edge
type EdgeKey struct {
	From VertexKey
	To   VertexKey
}

// Reverse returns the key of the opposite direction
func (k EdgeKey) Reverse() EdgeKey {
	return EdgeKey{From: k.To, To: k.From}
}

// EdgeSafePtr references an edge by its endpoints' stable identities
type EdgeSafePtr struct {
	From VertexSafePtr
	To   VertexSafePtr
}

// Key returns the stable identity
func (e EdgeSafePtr) Key() EdgeKey {
	return EdgeKey{From: e.From.Key(), To: e.To.Key()}
}

// Vertex is one graph vertex
type Vertex struct {
	Position vmath.Vec3F
	Edges    []Edge
}

// EdgeData describes one outgoing edge of a cell for streaming in
type EdgeData struct {
	From       int32
	To         VertexKey
	Length     float32
	Multiplier float32
}

// CellData is the streamable description of a cell
type CellData struct {
	UID       CellUID
	Positions []vmath.Vec3F
	Edges     []EdgeData
}
