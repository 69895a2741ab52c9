package vmath

import "math"

// Polygon is a closed planar loop, last vertex connects back to the first
type Polygon []Vec2F

// SignedArea returns the shoelace area, positive for counter-clockwise loops
func SignedArea(p Polygon) float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		a := p[i]
		b := p[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum * 0.5
}

// IsDegenerate reports whether p encloses no more than minArea
// Collinear outlines and outlines with fewer than three vertices are degenerate
func IsDegenerate(p Polygon, minArea float64) bool {
	return len(p) < 3 || math.Abs(SignedArea(p)) <= minArea
}

// CCW returns p oriented counter-clockwise, copying only when reversal is needed
func CCW(p Polygon) Polygon {
	if SignedArea(p) >= 0 {
		return p
	}
	out := make(Polygon, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// Clone returns an independent copy of p
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// Bounds returns the axis-aligned bounding box of p
func Bounds(p Polygon) AABB2 {
	b := EmptyAABB2()
	for _, v := range p {
		b = b.Extend(v)
	}
	return b
}

// Edge returns the i-th boundary edge
func (p Polygon) Edge(i int) (Vec2F, Vec2F) {
	return p[i], p[(i+1)%len(p)]
}

// PointOnBoundary reports whether pt lies within eps of the boundary of p
func PointOnBoundary(pt Vec2F, p Polygon, eps float64) bool {
	for i := range p {
		a, b := p.Edge(i)
		if DistPointSegment(pt, a, b) <= eps {
			return true
		}
	}
	return false
}

// PointStrictlyInside reports whether pt is inside p and not on its boundary
func PointStrictlyInside(pt Vec2F, p Polygon, eps float64) bool {
	if len(p) < 3 || PointOnBoundary(pt, p, eps) {
		return false
	}
	inside := false
	n := len(p)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y) + a.X
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Simplify removes repeated vertices and vertices within eps of the line through their neighbours
func Simplify(p Polygon, eps float64) Polygon {
	out := p.Clone()
	for {
		changed := false
		n := len(out)
		if n < 3 {
			return out
		}
		for i := 0; i < n; i++ {
			prev := out[(i+n-1)%n]
			cur := out[i]
			next := out[(i+1)%n]
			if V2FNear(prev, cur, eps) || distToLine(cur, prev, next) <= eps {
				out = append(out[:i], out[i+1:]...)
				changed = true
				break
			}
		}
		if !changed {
			return out
		}
	}
}

// Canonical rotates p so that its lowest (Y, then X) vertex comes first
func Canonical(p Polygon) Polygon {
	if len(p) == 0 {
		return p
	}
	best := 0
	for i, v := range p {
		b := p[best]
		if v.Y < b.Y || (v.Y == b.Y && v.X < b.X) {
			best = i
		}
	}
	out := make(Polygon, 0, len(p))
	out = append(out, p[best:]...)
	out = append(out, p[:best]...)
	return out
}

// PolygonsEqual compares two loops up to starting vertex
func PolygonsEqual(a, b Polygon, eps float64) bool {
	if len(a) != len(b) {
		return false
	}
	ca, cb := Canonical(a), Canonical(b)
	for i := range ca {
		if !V2FNear(ca[i], cb[i], eps) {
			return false
		}
	}
	return true
}

// Centroid returns the area centroid of p, or the vertex mean for degenerate loops
func Centroid(p Polygon) Vec2F {
	area := SignedArea(p)
	if math.Abs(area) <= Epsilon {
		var c Vec2F
		for _, v := range p {
			c = V2FAdd(c, v)
		}
		if len(p) > 0 {
			c = V2FScale(c, 1/float64(len(p)))
		}
		return c
	}
	var cx, cy float64
	n := len(p)
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		cross := a.X*b.Y - b.X*a.Y
		cx += (a.X + b.X) * cross
		cy += (a.Y + b.Y) * cross
	}
	f := 1 / (6 * area)
	return Vec2F{cx * f, cy * f}
}

// RectPolygon returns the counter-clockwise rectangle spanning min→max
func RectPolygon(min, max Vec2F) Polygon {
	return Polygon{
		{min.X, min.Y},
		{max.X, min.Y},
		{max.X, max.Y},
		{min.X, max.Y},
	}
}

func distToLine(p, a, b Vec2F) float64 {
	ab := V2FSub(b, a)
	l := V2FMag(ab)
	if l <= Epsilon {
		return V2FDist(p, a)
	}
	return math.Abs(V2FCross(ab, V2FSub(p, a))) / l
}
