package world

import (
	"math"

	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/vmath"
)

// GridMesh is a walkable surface made of square tiles, one per grid coordinate
// Tile (x,y) is centred on the graph vertex at (x*Spacing, y*Spacing). It serves as the NavMesh
// and the collision bridge of scenarios; both only read immutable data
type GridMesh struct {
	Width, Height int
	Spacing       float64
	blocked       []bool
}

// NewGridMesh snapshots the wall layout
func NewGridMesh(w, h int, spacing float64, walls graph.WallChecker) *GridMesh {
	m := &GridMesh{Width: w, Height: h, Spacing: spacing, blocked: make([]bool, w*h)}
	if walls != nil {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m.blocked[y*w+x] = walls(x, y)
			}
		}
	}
	return m
}

// Blocked reports whether tile (x,y) is a wall; out of bounds counts as wall
func (m *GridMesh) Blocked(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return true
	}
	return m.blocked[y*m.Width+x]
}

// toCell converts a world position into tile space where tile i spans [i, i+1)
func (m *GridMesh) toCell(p vmath.Vec3F) (float64, float64) {
	return p.X/m.Spacing + 0.5, p.Y/m.Spacing + 0.5
}

func (m *GridMesh) fromCell(u, v, z float64) vmath.Vec3F {
	return vmath.Vec3F{X: (u - 0.5) * m.Spacing, Y: (v - 0.5) * m.Spacing, Z: z}
}

// Tile returns the tile containing pos
func (m *GridMesh) Tile(pos vmath.Vec3F) (int, int) {
	u, v := m.toCell(pos)
	return int(math.Floor(u)), int(math.Floor(v))
}

// IsPointInside implements bot.NavMesh
func (m *GridMesh) IsPointInside(pos vmath.Vec3F) bool {
	return !m.Blocked(m.Tile(pos))
}

// RayCast implements bot.NavMesh
// The hit point is where the segment enters the first wall tile
func (m *GridMesh) RayCast(p1, p2 vmath.Vec3F) (vmath.Vec3F, bool) {
	u1, v1 := m.toCell(p1)
	u2, v2 := m.toCell(p2)

	for c := range vmath.CellsAlong(u1, v1, u2, v2) {
		if m.Blocked(c.X, c.Y) {
			return vmath.V3FLerp(p1, p2, c.T), true
		}
	}
	return vmath.Vec3F{}, false
}

// HasLineOfSight implements bot.CollisionBridge
func (m *GridMesh) HasLineOfSight(p1, p2 vmath.Vec3F) bool {
	_, blocked := m.RayCast(p1, p2)
	return !blocked
}

// NearestInside implements bot.NavMesh
// Searches tiles in growing rings and returns the closest point of the nearest open tile
func (m *GridMesh) NearestInside(pos vmath.Vec3F, radius float64) (vmath.Vec3F, bool) {
	if m.IsPointInside(pos) {
		return pos, true
	}
	u, v := m.toCell(pos)
	cx, cy := int(math.Floor(u)), int(math.Floor(v))
	rings := int(math.Ceil(radius/m.Spacing)) + 1

	const inset = 1e-3
	best := math.Inf(1)
	var bestPt vmath.Vec3F
	for r := 1; r <= rings; r++ {
		for y := cy - r; y <= cy+r; y++ {
			for x := cx - r; x <= cx+r; x++ {
				if max(abs(x-cx), abs(y-cy)) != r || m.Blocked(x, y) {
					continue
				}
				pu := math.Max(float64(x)+inset, math.Min(u, float64(x+1)-inset))
				pv := math.Max(float64(y)+inset, math.Min(v, float64(y+1)-inset))
				if d := math.Hypot(pu-u, pv-v) * m.Spacing; d < best {
					best = d
					bestPt = m.fromCell(pu, pv, pos.Z)
				}
			}
		}
		// Nothing in a later ring can beat a hit closer than the ring distance
		if best <= float64(r)*m.Spacing {
			break
		}
	}
	if best > radius {
		return pos, false
	}
	return bestPt, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
