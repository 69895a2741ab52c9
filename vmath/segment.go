package vmath

import "math"

// SegmentHit is one intersection between segments P and Q
// T is the parameter on P, U the parameter on Q, both in [0,1]
type SegmentHit struct {
	T, U float64
}

// SegmentIntersections returns the intersections of p1→p2 with q1→q2
// Crossing or touching segments yield one hit, collinear overlaps yield the two overlap ends
// Zero-length segments never intersect
func SegmentIntersections(p1, p2, q1, q2 Vec2F) []SegmentHit {
	r := V2FSub(p2, p1)
	s := V2FSub(q2, q1)
	rr := V2FDot(r, r)
	ss := V2FDot(s, s)
	if rr <= Epsilon*Epsilon || ss <= Epsilon*Epsilon {
		return nil
	}

	qp := V2FSub(q1, p1)
	denom := V2FCross(r, s)
	scale := math.Sqrt(rr * ss)

	if math.Abs(denom) > 1e-10*scale {
		t := V2FCross(qp, s) / denom
		u := V2FCross(qp, r) / denom
		const pe = 1e-9
		if t < -pe || t > 1+pe || u < -pe || u > 1+pe {
			return nil
		}
		return []SegmentHit{{T: clamp01(t), U: clamp01(u)}}
	}

	// Parallel: only collinear segments can share points
	if math.Abs(V2FCross(qp, r)) > 1e-10*rr {
		return nil
	}

	t0 := V2FDot(qp, r) / rr
	t1 := V2FDot(V2FSub(q2, p1), r) / rr
	lo, hi := math.Min(t0, t1), math.Max(t0, t1)
	lo = math.Max(lo, 0)
	hi = math.Min(hi, 1)
	if lo > hi+1e-9 {
		return nil
	}

	paramOnQ := func(t float64) float64 {
		pt := V2FLerp(p1, p2, t)
		return clamp01(V2FDot(V2FSub(pt, q1), s) / ss)
	}

	if hi-lo <= 1e-9 {
		return []SegmentHit{{T: lo, U: paramOnQ(lo)}}
	}
	return []SegmentHit{
		{T: lo, U: paramOnQ(lo)},
		{T: hi, U: paramOnQ(hi)},
	}
}

// SegmentsTouch reports whether two segments share at least one point
func SegmentsTouch(p1, p2, q1, q2 Vec2F) bool {
	return len(SegmentIntersections(p1, p2, q1, q2)) > 0
}

// ClosestPointOnSegment returns the point of a→b closest to p and its parameter
func ClosestPointOnSegment(p, a, b Vec2F) (Vec2F, float64) {
	ab := V2FSub(b, a)
	den := V2FDot(ab, ab)
	if den <= Epsilon*Epsilon {
		return a, 0
	}
	t := clamp01(V2FDot(V2FSub(p, a), ab) / den)
	return V2FLerp(a, b, t), t
}

// DistPointSegment returns the distance from p to segment a→b
func DistPointSegment(p, a, b Vec2F) float64 {
	c, _ := ClosestPointOnSegment(p, a, b)
	return V2FDist(p, c)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
