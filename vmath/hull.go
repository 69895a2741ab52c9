package vmath

import "sort"

// ConvexHull returns the counter-clockwise convex hull of points (Andrew's monotone chain)
// Collinear boundary points are dropped
func ConvexHull(points []Vec2F) Polygon {
	if len(points) < 3 {
		return Polygon(append([]Vec2F(nil), points...))
	}

	pts := append([]Vec2F(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make(Polygon, 0, len(pts)+1)
	for _, p := range pts {
		for len(hull) >= 2 && PointSide(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && PointSide(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}
