package lpf

import (
	"cmp"
	"math"
	"slices"

	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/vmath"
)

// AreaSet is an immutable snapshot of merged obstacle areas
// Published by the Manager; readers may hold it across frames and goroutines
type AreaSet struct {
	Version uint64
	Areas   []Area
}

// Len returns the number of areas, zero for a nil set
func (s *AreaSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Areas)
}

// IsEdgeBlocked reports whether any point of p1→p2 lies strictly inside an area
// The segment is split at every boundary crossing and each piece is tested at its midpoint.
// Zero-length segments are never blocked
func (s *AreaSet) IsEdgeBlocked(p1, p2 vmath.Vec2F) bool {
	if s == nil || vmath.V2FDist(p1, p2) <= parameter.LpfBoundaryEpsilon {
		return false
	}
	seg := vmath.EmptyAABB2().Extend(p1).Extend(p2)
	for i := range s.Areas {
		a := &s.Areas[i]
		if !a.Bounds.Overlaps(seg) {
			continue
		}
		if segmentEntersArea(p1, p2, a.Outline) {
			return true
		}
	}
	return false
}

func segmentEntersArea(p1, p2 vmath.Vec2F, outline vmath.Polygon) bool {
	ts := []float64{0, 1}
	for j := range outline {
		q0, q1 := outline.Edge(j)
		for _, h := range vmath.SegmentIntersections(p1, p2, q0, q1) {
			ts = append(ts, h.T)
		}
	}
	slices.Sort(ts)
	for k := 0; k+1 < len(ts); k++ {
		if ts[k+1]-ts[k] <= vmath.Epsilon {
			continue
		}
		mid := vmath.V2FLerp(p1, p2, (ts[k]+ts[k+1])/2)
		if vmath.PointStrictlyInside(mid, outline, parameter.LpfBoundaryEpsilon) {
			return true
		}
	}
	return false
}

// Blocked adapts the set to an A* edge filter over planar positions
func (s *AreaSet) Blocked(_ graph.EdgeKey, from, to vmath.Vec3F) bool {
	return s.IsEdgeBlocked(vmath.V3FXY(from), vmath.V3FXY(to))
}

// IsPointInside reports whether p lies strictly inside any area
func (s *AreaSet) IsPointInside(p vmath.Vec2F) bool {
	_, ok := s.containing(p)
	return ok
}

// AreaAt returns the area strictly containing p
func (s *AreaSet) AreaAt(p vmath.Vec2F) (*Area, bool) {
	i, ok := s.containing(p)
	if !ok {
		return nil, false
	}
	return &s.Areas[i], true
}

func (s *AreaSet) containing(p vmath.Vec2F) (int, bool) {
	if s == nil {
		return 0, false
	}
	for i := range s.Areas {
		a := &s.Areas[i]
		if a.Bounds.Contains(p) && vmath.PointStrictlyInside(p, a.Outline, parameter.LpfBoundaryEpsilon) {
			return i, true
		}
	}
	return 0, false
}

// NearestOutsidePoint moves p out of any area, keeping margin clearance from the boundary
// Every edge of the containing area offers an exit point offset along its outward normal; the nearest
// exit that is free wins. When all exits land in other areas the nearest one is taken and the step
// repeats a bounded number of times. Points already outside are returned unchanged; false when no
// free point was found
func (s *AreaSet) NearestOutsidePoint(p vmath.Vec2F, margin float64) (vmath.Vec2F, bool) {
	margin = math.Max(margin, 2*parameter.LpfBoundaryEpsilon)
	cur := p
	for range parameter.LpfMaxRefinePushes {
		i, inside := s.containing(cur)
		if !inside {
			return cur, true
		}
		exits := exitPoints(cur, s.Areas[i].Outline, margin)
		for _, e := range exits {
			if !s.IsPointInside(e) {
				return e, true
			}
		}
		cur = exits[0]
	}
	return p, false
}

// exitPoints projects p onto every edge of a counter-clockwise outline and steps along the outward
// normal, nearest projection first
func exitPoints(p vmath.Vec2F, outline vmath.Polygon, margin float64) []vmath.Vec2F {
	type exit struct {
		pt   vmath.Vec2F
		dist float64
	}
	exits := make([]exit, 0, len(outline))
	for j := range outline {
		a, b := outline.Edge(j)
		foot, _ := vmath.ClosestPointOnSegment(p, a, b)
		// Right-hand normal points outward on a counter-clockwise loop
		normal := vmath.V2FScale(vmath.V2FNormalize(vmath.V2FPerp(vmath.V2FSub(b, a))), -1)
		exits = append(exits, exit{
			pt:   vmath.V2FAdd(foot, vmath.V2FScale(normal, margin)),
			dist: vmath.V2FDist(p, foot),
		})
	}
	slices.SortStableFunc(exits, func(x, y exit) int { return cmp.Compare(x.dist, y.dist) })

	out := make([]vmath.Vec2F, len(exits))
	for i, e := range exits {
		out[i] = e.pt
	}
	return out
}
