package vmath

import "math"

// Epsilon is the tolerance used by planar predicates
const Epsilon = 1e-9

// Vec2F is a float64 planar vector
type Vec2F struct {
	X, Y float64
}

func V2FAdd(a, b Vec2F) Vec2F {
	return Vec2F{a.X + b.X, a.Y + b.Y}
}

func V2FSub(a, b Vec2F) Vec2F {
	return Vec2F{a.X - b.X, a.Y - b.Y}
}

func V2FScale(v Vec2F, s float64) Vec2F {
	return Vec2F{v.X * s, v.Y * s}
}

func V2FDot(a, b Vec2F) float64 {
	return a.X*b.X + a.Y*b.Y
}

// V2FCross returns the z component of the 3D cross product
func V2FCross(a, b Vec2F) float64 {
	return a.X*b.Y - a.Y*b.X
}

func V2FMag(v Vec2F) float64 {
	return math.Hypot(v.X, v.Y)
}

func V2FDist(a, b Vec2F) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func V2FNormalize(v Vec2F) Vec2F {
	mag := V2FMag(v)
	if mag == 0 {
		return Vec2F{}
	}
	return Vec2F{v.X / mag, v.Y / mag}
}

func V2FLerp(a, b Vec2F, t float64) Vec2F {
	return Vec2F{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// V2FPerp returns v rotated 90° counter-clockwise
func V2FPerp(v Vec2F) Vec2F {
	return Vec2F{-v.Y, v.X}
}

// V2FNear reports whether a and b are within eps on both axes
func V2FNear(a, b Vec2F, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

// PointSide returns >0 if p is left of l0→l1, <0 if right, 0 if collinear
func PointSide(l0, l1, p Vec2F) float64 {
	return (l1.X-l0.X)*(p.Y-l0.Y) - (l1.Y-l0.Y)*(p.X-l0.X)
}

// AABB2 is a planar axis-aligned box
type AABB2 struct {
	Min, Max Vec2F
}

// EmptyAABB2 returns an inverted box ready for Extend
func EmptyAABB2() AABB2 {
	return AABB2{
		Min: Vec2F{math.Inf(1), math.Inf(1)},
		Max: Vec2F{math.Inf(-1), math.Inf(-1)},
	}
}

// Extend grows the box to include p
func (b AABB2) Extend(p Vec2F) AABB2 {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	return b
}

// Union returns the smallest box containing b and o
func (b AABB2) Union(o AABB2) AABB2 {
	return b.Extend(o.Min).Extend(o.Max)
}

// Overlaps reports whether the boxes intersect, touching counts
func (b AABB2) Overlaps(o AABB2) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y
}

// Contains reports whether p lies in the closed box
func (b AABB2) Contains(p Vec2F) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Grow expands the box by margin on every side
func (b AABB2) Grow(margin float64) AABB2 {
	return AABB2{
		Min: Vec2F{b.Min.X - margin, b.Min.Y - margin},
		Max: Vec2F{b.Max.X + margin, b.Max.Y + margin},
	}
}
