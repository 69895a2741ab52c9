package vmath

import (
	"iter"
	"math"
)

// CellHit is one unit cell crossed by a segment
// T is the segment parameter in [0,1] at which the segment enters the cell
type CellHit struct {
	X, Y int
	T    float64
}

// CellsAlong yields the unit cells crossed by (x1,y1)→(x2,y2) in order, DDA style
// Coordinates are in cell units: cell (i,j) spans [i,i+1) x [j,j+1).
// A segment passing exactly through a corner steps diagonally
func CellsAlong(x1, y1, x2, y2 float64) iter.Seq[CellHit] {
	return func(yield func(CellHit) bool) {
		x, y := int(math.Floor(x1)), int(math.Floor(y1))
		tx, ty := int(math.Floor(x2)), int(math.Floor(y2))
		sx, nextX, deltaX := axisStep(x1, x2, x)
		sy, nextY, deltaY := axisStep(y1, y2, y)

		t := 0.0
		for yield(CellHit{X: x, Y: y, T: t}) {
			if x == tx && y == ty {
				return
			}
			stepX := x != tx && (nextX <= nextY || y == ty)
			stepY := y != ty && (nextY <= nextX || x == tx)
			if stepX {
				t = nextX
				x += sx
				nextX += deltaX
			}
			if stepY {
				if !stepX {
					t = nextY
				}
				y += sy
				nextY += deltaY
			}
			t = math.Min(t, 1)
		}
	}
}

// axisStep returns the step direction, the parameter of the first boundary crossing and the
// parameter distance between crossings along one axis
func axisStep(a1, a2 float64, cell int) (int, float64, float64) {
	d := a2 - a1
	switch {
	case d > 0:
		return 1, (float64(cell) + 1 - a1) / d, 1 / d
	case d < 0:
		return -1, (a1 - float64(cell)) / -d, 1 / -d
	default:
		return 0, math.Inf(1), 0
	}
}
