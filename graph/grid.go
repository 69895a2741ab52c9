package graph

import (
	"github.com/lixenwraith/navcore/vmath"
)

// WallChecker returns true for grid coordinates that hold no vertex
type WallChecker func(x, y int) bool

// Cardinal neighbor offsets: E, S, W, N
var gridDirs = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Grid is a 4-connected grid graph split into square cells for streaming
type Grid struct {
	Width, Height int
	Spacing       float64
	CellSize      int

	keys    []VertexKey
	present []bool
	coords  map[VertexKey][2]int
	cells   []CellData
	cellIdx []int // grid coord -> index in cells
}

// BuildGrid creates a grid of w*h vertices spaced by spacing, cellSize vertices per cell side
// Vertex (x,y) sits at (x*spacing, y*spacing, 0); blocked coordinates get no vertex
func BuildGrid(w, h int, spacing float64, cellSize int, blocked WallChecker) *Grid {
	if cellSize <= 0 {
		cellSize = max(w, h)
	}
	if blocked == nil {
		blocked = func(int, int) bool { return false }
	}
	gr := &Grid{
		Width:    w,
		Height:   h,
		Spacing:  spacing,
		CellSize: cellSize,
		keys:     make([]VertexKey, w*h),
		present:  make([]bool, w*h),
		coords:   make(map[VertexKey][2]int, w*h),
		cellIdx:  make([]int, w*h),
	}

	b := NewBuilder()
	cellsX := (w + cellSize - 1) / cellSize
	cellsY := (h + cellSize - 1) / cellSize
	uids := make([]CellUID, cellsX*cellsY)
	for i := range uids {
		uids[i] = b.Cell()
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ci := (y/cellSize)*cellsX + x/cellSize
			gr.cellIdx[y*w+x] = ci
			if blocked(x, y) {
				continue
			}
			k := b.AddVertex(uids[ci], gr.Position(x, y))
			gr.keys[y*w+x] = k
			gr.present[y*w+x] = true
			gr.coords[k] = [2]int{x, y}
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			from, ok := gr.Key(x, y)
			if !ok {
				continue
			}
			for _, d := range gridDirs {
				to, ok := gr.Key(x+d[0], y+d[1])
				if !ok {
					continue
				}
				b.AddEdge(from, to, 1)
			}
		}
	}

	gr.cells = b.Cells()
	return gr
}

// Key returns the vertex identity at grid coordinate (x,y)
func (gr *Grid) Key(x, y int) (VertexKey, bool) {
	if x < 0 || y < 0 || x >= gr.Width || y >= gr.Height {
		return VertexKey{}, false
	}
	i := y*gr.Width + x
	return gr.keys[i], gr.present[i]
}

// SafePtr returns an unresolved safe pointer for (x,y)
func (gr *Grid) SafePtr(x, y int) VertexSafePtr {
	k, _ := gr.Key(x, y)
	return SafePtrOf(k)
}

// Coord returns the grid coordinate of a vertex identity
func (gr *Grid) Coord(k VertexKey) (x, y int, ok bool) {
	c, ok := gr.coords[k]
	return c[0], c[1], ok
}

// Position returns the world position of grid coordinate (x,y)
func (gr *Grid) Position(x, y int) vmath.Vec3F {
	return vmath.Vec3F{X: float64(x) * gr.Spacing, Y: float64(y) * gr.Spacing}
}

// EdgeKey returns the directed edge identity between two grid coordinates
func (gr *Grid) EdgeKey(x0, y0, x1, y1 int) EdgeKey {
	a, _ := gr.Key(x0, y0)
	b, _ := gr.Key(x1, y1)
	return EdgeKey{From: a, To: b}
}

// Cells returns the streamable cell descriptions
func (gr *Grid) Cells() []CellData {
	return gr.cells
}

// CellAt returns the cell description holding coordinate (x,y)
func (gr *Grid) CellAt(x, y int) CellData {
	return gr.cells[gr.cellIdx[y*gr.Width+x]]
}

// Load streams every cell into g
func (gr *Grid) Load(g *Graph) error {
	for _, c := range gr.cells {
		if _, err := g.AddCell(c); err != nil {
			return err
		}
	}
	return nil
}
