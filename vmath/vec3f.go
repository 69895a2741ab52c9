package vmath

import (
	"math"
)

// Vec3F is a float64 3D vector for positions and directions
// Z is the vertical axis; planar queries project onto X,Y
type Vec3F struct {
	X, Y, Z float64
}

func V3FAdd(a, b Vec3F) Vec3F {
	return Vec3F{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func V3FSub(a, b Vec3F) Vec3F {
	return Vec3F{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func V3FScale(v Vec3F, s float64) Vec3F {
	return Vec3F{v.X * s, v.Y * s, v.Z * s}
}

func V3FDot(a, b Vec3F) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func V3FMagSq(v Vec3F) float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func V3FMag(v Vec3F) float64 {
	return math.Sqrt(V3FMagSq(v))
}

func V3FNormalize(v Vec3F) Vec3F {
	mag := V3FMag(v)
	if mag == 0 {
		return Vec3F{}
	}
	inv := 1.0 / mag
	return Vec3F{v.X * inv, v.Y * inv, v.Z * inv}
}

// V3FDist returns the 3D Euclidean distance between a and b
func V3FDist(a, b Vec3F) float64 {
	return V3FMag(V3FSub(a, b))
}

// V3FDist2D returns the planar distance between a and b, ignoring Z
func V3FDist2D(a, b Vec3F) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// V3FLerp interpolates between a and b, t in [0,1]
func V3FLerp(a, b Vec3F, t float64) Vec3F {
	return Vec3F{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

// V3FXY projects onto the horizontal plane
func V3FXY(v Vec3F) Vec2F {
	return Vec2F{v.X, v.Y}
}

// V3FFromXY lifts a planar point to 3D at height z
func V3FFromXY(p Vec2F, z float64) Vec3F {
	return Vec3F{p.X, p.Y, z}
}

// V3FYaw returns the heading angle of v on the horizontal plane in radians
func V3FYaw(v Vec3F) float64 {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	return math.Atan2(v.Y, v.X)
}
