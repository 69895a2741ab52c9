package lpf

import (
	"math"
	"sort"

	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/vmath"
)

// NormalizeOutline orients an outline counter-clockwise and drops collinear vertices
// Returns false for degenerate outlines, which count as no obstacle
func NormalizeOutline(p vmath.Polygon) (vmath.Polygon, bool) {
	if vmath.IsDegenerate(p, parameter.LpfMinOutlineArea) {
		return nil, false
	}
	out := vmath.Simplify(vmath.CCW(p.Clone()), parameter.LpfMergeEpsilon)
	if vmath.IsDegenerate(out, parameter.LpfMinOutlineArea) {
		return nil, false
	}
	return out, true
}

// Overlap reports whether two outlines share at least one point
func Overlap(a, b vmath.Polygon) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	if !vmath.Bounds(a).Grow(parameter.LpfBoundaryEpsilon).Overlaps(vmath.Bounds(b)) {
		return false
	}
	for i := range a {
		a0, a1 := a.Edge(i)
		for j := range b {
			b0, b1 := b.Edge(j)
			if vmath.SegmentsTouch(a0, a1, b0, b1) {
				return true
			}
		}
	}
	return containsPoint(b, a[0]) || containsPoint(a, b[0])
}

func containsPoint(p vmath.Polygon, pt vmath.Vec2F) bool {
	return vmath.PointStrictlyInside(pt, p, parameter.LpfBoundaryEpsilon) ||
		vmath.PointOnBoundary(pt, p, parameter.LpfBoundaryEpsilon)
}

// --- Union ---

// piece is a directed boundary fragment between two welded points
type piece struct {
	from, to vmath.Vec2F
	used     bool
}

// welder snaps nearby points onto one representative so fragments chain by exact equality
type welder struct {
	points []vmath.Vec2F
	eps    float64
}

func (w *welder) weld(p vmath.Vec2F) vmath.Vec2F {
	for _, q := range w.points {
		if vmath.V2FNear(p, q, w.eps) {
			return q
		}
	}
	w.points = append(w.points, p)
	return p
}

type split struct {
	t  float64
	pt vmath.Vec2F
}

// MergePolygons returns the union of two counter-clockwise outlines
// Boundaries are split at their intersections; fragments outside the other outline are kept,
// coincident fragments are kept once when both run the same way and dropped when they run opposite.
// Fragments are chained into loops; outer loops are returned, inner loops (holes) are discarded.
// Disjoint inputs come back as two loops. Merging an outline with itself returns it unchanged.
func MergePolygons(a, b vmath.Polygon) []vmath.Polygon {
	loops, _ := mergeOutlines(a, b)
	return loops
}

// mergeOutlines is MergePolygons that also reports when the boundary could not be traced
// and the convex hull of both inputs was returned instead
func mergeOutlines(a, b vmath.Polygon) ([]vmath.Polygon, bool) {
	a, okA := NormalizeOutline(a)
	b, okB := NormalizeOutline(b)
	switch {
	case !okA && !okB:
		return nil, false
	case !okA:
		return []vmath.Polygon{b}, false
	case !okB:
		return []vmath.Polygon{a}, false
	}

	if !vmath.Bounds(a).Grow(parameter.LpfBoundaryEpsilon).Overlaps(vmath.Bounds(b)) {
		return []vmath.Polygon{a, b}, false
	}

	w := &welder{eps: parameter.LpfMergeEpsilon}
	for i := range a {
		a[i] = w.weld(a[i])
	}
	for i := range b {
		b[i] = w.weld(b[i])
	}

	splitsA := make([][]split, len(a))
	splitsB := make([][]split, len(b))
	for i := range a {
		a0, a1 := a.Edge(i)
		for j := range b {
			b0, b1 := b.Edge(j)
			for _, h := range vmath.SegmentIntersections(a0, a1, b0, b1) {
				pt := w.weld(vmath.V2FLerp(a0, a1, h.T))
				splitsA[i] = append(splitsA[i], split{t: h.T, pt: pt})
				splitsB[j] = append(splitsB[j], split{t: h.U, pt: pt})
			}
		}
	}

	var pieces []piece
	pieces = appendPieces(pieces, a, splitsA, b, true)
	pieces = appendPieces(pieces, b, splitsB, a, false)

	loops, ok := chainLoops(pieces)
	if !ok {
		return []vmath.Polygon{vmath.ConvexHull(append(a.Clone(), b...))}, true
	}

	var out []vmath.Polygon
	for _, l := range loops {
		l = vmath.Simplify(l, parameter.LpfMergeEpsilon)
		if vmath.SignedArea(l) <= parameter.LpfMinOutlineArea {
			continue
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		return []vmath.Polygon{vmath.ConvexHull(append(a.Clone(), b...))}, true
	}
	return out, false
}

// appendPieces splits every edge of p and keeps the fragments that belong to the union boundary
// primary selects which copy survives for coincident same-direction fragments
func appendPieces(pieces []piece, p vmath.Polygon, splits [][]split, other vmath.Polygon, primary bool) []piece {
	eps := parameter.LpfBoundaryEpsilon
	for i := range p {
		p0, p1 := p.Edge(i)
		pts := make([]split, 0, len(splits[i])+2)
		pts = append(pts, split{t: 0, pt: p0}, split{t: 1, pt: p1})
		pts = append(pts, splits[i]...)
		sort.SliceStable(pts, func(x, y int) bool { return pts[x].t < pts[y].t })

		for k := 0; k+1 < len(pts); k++ {
			from, to := pts[k].pt, pts[k+1].pt
			if from == to || vmath.V2FDist(from, to) <= parameter.LpfMergeEpsilon {
				continue
			}
			mid := vmath.V2FLerp(from, to, 0.5)
			if vmath.PointOnBoundary(mid, other, eps) {
				if primary && sameDirection(from, to, mid, other, eps) {
					pieces = append(pieces, piece{from: from, to: to})
				}
				continue
			}
			if vmath.PointStrictlyInside(mid, other, eps) {
				continue
			}
			pieces = append(pieces, piece{from: from, to: to})
		}
	}
	return pieces
}

// sameDirection reports whether the boundary of other runs along from->to at mid
func sameDirection(from, to, mid vmath.Vec2F, other vmath.Polygon, eps float64) bool {
	d := vmath.V2FSub(to, from)
	for j := range other {
		o0, o1 := other.Edge(j)
		if vmath.DistPointSegment(mid, o0, o1) <= eps {
			return vmath.V2FDot(d, vmath.V2FSub(o1, o0)) > 0
		}
	}
	return false
}

// chainLoops links fragments end to start into closed loops
// At a vertex with several outgoing fragments the one turning most clockwise is taken,
// which traces the boundary with the union on its left
func chainLoops(pieces []piece) ([]vmath.Polygon, bool) {
	outgoing := make(map[vmath.Vec2F][]int, len(pieces))
	for i, pc := range pieces {
		outgoing[pc.from] = append(outgoing[pc.from], i)
	}

	var loops []vmath.Polygon
	for i := range pieces {
		if pieces[i].used {
			continue
		}
		start := pieces[i].from
		cur := i
		var loop vmath.Polygon
		for steps := 0; ; steps++ {
			if steps > len(pieces) {
				return nil, false
			}
			pc := &pieces[cur]
			pc.used = true
			loop = append(loop, pc.from)
			if pc.to == start {
				break
			}
			next := pickNext(pieces, outgoing[pc.to], pc.from, pc.to)
			if next < 0 {
				return nil, false
			}
			cur = next
		}
		loops = append(loops, loop)
	}
	return loops, true
}

func pickNext(pieces []piece, candidates []int, from, at vmath.Vec2F) int {
	back := vmath.V2FSub(from, at)
	backAngle := math.Atan2(back.Y, back.X)
	best := -1
	bestTurn := math.Inf(1)
	for _, c := range candidates {
		if pieces[c].used {
			continue
		}
		d := vmath.V2FSub(pieces[c].to, at)
		// Clockwise sweep from the reversed incoming direction
		turn := backAngle - math.Atan2(d.Y, d.X)
		for turn <= 0 {
			turn += 2 * math.Pi
		}
		for turn > 2*math.Pi {
			turn -= 2 * math.Pi
		}
		if turn < bestTurn {
			bestTurn = turn
			best = c
		}
	}
	return best
}
