package lpf

import (
	"math"
	"testing"

	"github.com/lixenwraith/navcore/vmath"
)

func rect(x0, y0, x1, y1 float64) vmath.Polygon {
	return vmath.RectPolygon(vmath.Vec2F{X: x0, Y: y0}, vmath.Vec2F{X: x1, Y: y1})
}

func TestNormalizeOutline(t *testing.T) {
	cw := vmath.Polygon{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	out, ok := NormalizeOutline(cw)
	if !ok {
		t.Fatal("Expected valid outline")
	}
	if vmath.SignedArea(out) <= 0 {
		t.Errorf("Expected counter-clockwise outline, area %v", vmath.SignedArea(out))
	}

	withCollinear := vmath.Polygon{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	out, _ = NormalizeOutline(withCollinear)
	if len(out) != 4 {
		t.Errorf("Expected collinear vertex dropped, got %d vertices", len(out))
	}

	degenerate := []vmath.Polygon{
		nil,
		{{X: 0, Y: 0}, {X: 1, Y: 1}},
		{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}},
		{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1e-9}},
	}
	for i, p := range degenerate {
		if _, ok := NormalizeOutline(p); ok {
			t.Errorf("Case %d: expected degenerate outline rejected", i)
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	shapes := []vmath.Polygon{
		rect(0, 0, 2, 1),
		{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 3}, {X: 2, Y: 1}, {X: 0, Y: 3}},
		vmath.ConvexHull([]vmath.Vec2F{{X: 1, Y: 0}, {X: 3, Y: 1}, {X: 2, Y: 4}, {X: -1, Y: 2}}),
	}
	for i, a := range shapes {
		merged := MergePolygons(a, a.Clone())
		if len(merged) != 1 {
			t.Fatalf("Shape %d: expected one loop, got %d", i, len(merged))
		}
		if !vmath.PolygonsEqual(merged[0], a, 1e-9) {
			t.Errorf("Shape %d: merge with itself changed outline\n got %v\nwant %v", i, merged[0], a)
		}

		again := MergePolygons(merged[0], merged[0])
		if len(again) != 1 || !vmath.PolygonsEqual(again[0], merged[0], 1e-9) {
			t.Errorf("Shape %d: second merge not a no-op", i)
		}
	}
}

func TestMergeOverlapping(t *testing.T) {
	merged := MergePolygons(rect(0, 0, 2, 2), rect(1, 1, 3, 3))
	if len(merged) != 1 {
		t.Fatalf("Expected one loop, got %d", len(merged))
	}
	if got := vmath.SignedArea(merged[0]); math.Abs(got-7) > 1e-9 {
		t.Errorf("Expected area 7, got %v", got)
	}
	if len(merged[0]) != 8 {
		t.Errorf("Expected 8 vertices, got %d: %v", len(merged[0]), merged[0])
	}
	for _, v := range merged[0] {
		if vmath.PointStrictlyInside(v, rect(0, 0, 2, 2), 1e-9) || vmath.PointStrictlyInside(v, rect(1, 1, 3, 3), 1e-9) {
			t.Errorf("Interior point %v kept in outline", v)
		}
	}
}

func TestMergeSharedEdge(t *testing.T) {
	merged := MergePolygons(rect(0, 0, 1, 1), rect(1, 0, 2, 1))
	if len(merged) != 1 {
		t.Fatalf("Expected one loop, got %d", len(merged))
	}
	if !vmath.PolygonsEqual(merged[0], rect(0, 0, 2, 1), 1e-9) {
		t.Errorf("Expected 2x1 rectangle, got %v", merged[0])
	}
}

func TestMergeContainedAndDisjoint(t *testing.T) {
	outer := rect(0, 0, 4, 4)
	merged := MergePolygons(outer, rect(1, 1, 2, 2))
	if len(merged) != 1 || !vmath.PolygonsEqual(merged[0], outer, 1e-9) {
		t.Errorf("Expected enclosed outline absorbed, got %v", merged)
	}
	merged = MergePolygons(rect(1, 1, 2, 2), outer)
	if len(merged) != 1 || !vmath.PolygonsEqual(merged[0], outer, 1e-9) {
		t.Errorf("Expected enclosing outline kept, got %v", merged)
	}

	merged = MergePolygons(rect(0, 0, 1, 1), rect(3, 3, 4, 4))
	if len(merged) != 2 {
		t.Errorf("Expected disjoint outlines kept apart, got %d loops", len(merged))
	}
}

func TestMergeHoleDiscarded(t *testing.T) {
	// U shape closed by a bar leaves a hole which is dropped
	u := vmath.Polygon{
		{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 2, Y: 3},
		{X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 3}, {X: 0, Y: 3},
	}
	merged := MergePolygons(u, rect(0, 2, 3, 3))
	if len(merged) != 1 {
		t.Fatalf("Expected one outer loop, got %d", len(merged))
	}
	if !vmath.PolygonsEqual(merged[0], rect(0, 0, 3, 3), 1e-9) {
		t.Errorf("Expected 3x3 square, got %v", merged[0])
	}
}

func TestMergeDegenerateInput(t *testing.T) {
	line := vmath.Polygon{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	a := rect(0, 0, 1, 1)
	merged := MergePolygons(a, line)
	if len(merged) != 1 || !vmath.PolygonsEqual(merged[0], a, 1e-9) {
		t.Errorf("Expected degenerate outline ignored, got %v", merged)
	}
	if merged := MergePolygons(line, line); merged != nil {
		t.Errorf("Expected nothing from two degenerate outlines, got %v", merged)
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b vmath.Polygon
		want bool
	}{
		{"crossing", rect(0, 0, 2, 2), rect(1, 1, 3, 3), true},
		{"contained", rect(0, 0, 4, 4), rect(1, 1, 2, 2), true},
		{"touching edge", rect(0, 0, 1, 1), rect(1, 0, 2, 1), true},
		{"disjoint", rect(0, 0, 1, 1), rect(2, 2, 3, 3), false},
		{"degenerate", rect(0, 0, 1, 1), vmath.Polygon{{X: 0, Y: 0}, {X: 1, Y: 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlap = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputePreAggregates(t *testing.T) {
	records := []ObstacleRecord{
		{Obstacle: 1, Floor: 0, Outline: rect(0, 0, 2, 2)},
		{Obstacle: 2, Floor: 0, Outline: rect(1, 1, 3, 3)},
		{Obstacle: 3, Floor: 0, Outline: rect(2.5, 2.5, 4, 4)}, // overlaps 2 only
		{Obstacle: 4, Floor: 0, Outline: rect(10, 10, 11, 11)},
		{Obstacle: 5, Floor: 0, Outline: vmath.Polygon{{X: 5, Y: 5}, {X: 6, Y: 6}, {X: 7, Y: 7}}},
		{Obstacle: 6, Floor: 1, Outline: rect(0, 0, 1, 1)},
	}
	pre := ComputePreAggregates(records)
	if len(pre) != 3 {
		t.Fatalf("Expected 3 pre-aggregates, got %d", len(pre))
	}

	chain := pre[0]
	if chain.Floor != 0 || len(chain.Obstacles) != 3 {
		t.Errorf("Expected chained group of 3 on floor 0, got %+v", chain)
	}
	if chain.Approximate {
		t.Error("Exact union flagged as approximate")
	}
	for _, r := range records[:3] {
		for _, v := range r.Outline {
			if vmath.PointStrictlyInside(v, chain.Outline, 1e-9) {
				continue
			}
			if !vmath.PointOnBoundary(v, chain.Outline, 1e-9) {
				t.Errorf("Obstacle %d vertex %v outside merged outline", r.Obstacle, v)
			}
		}
	}
	wantArea := 4.0 + 4.0 - 1.0 + 2.25 - 0.25
	if got := vmath.SignedArea(chain.Outline); math.Abs(got-wantArea) > 1e-9 {
		t.Errorf("Expected area %v, got %v", wantArea, got)
	}

	if pre[1].Floor != 0 || len(pre[1].Obstacles) != 1 || pre[1].Obstacles[0] != 4 {
		t.Errorf("Expected lone obstacle 4, got %+v", pre[1])
	}
	if pre[2].Floor != 1 || pre[2].Obstacles[0] != 6 {
		t.Errorf("Expected floor 1 obstacle 6, got %+v", pre[2])
	}
	for _, p := range pre {
		for _, id := range p.Obstacles {
			if id == 5 {
				t.Error("Degenerate obstacle 5 aggregated")
			}
		}
	}
}

func TestCornerTouchApproximatedByHull(t *testing.T) {
	a, b := rect(0, 0, 1, 1), rect(1, 1, 2, 2)
	if !Overlap(a, b) {
		t.Fatal("Expected squares sharing a corner to overlap")
	}
	if merged := MergePolygons(a, b); len(merged) != 2 {
		t.Fatalf("Expected two loops meeting at the corner, got %d", len(merged))
	}

	pre := ComputePreAggregates([]ObstacleRecord{
		{Obstacle: 1, Floor: 0, Outline: a},
		{Obstacle: 2, Floor: 0, Outline: b},
	})
	if len(pre) != 1 {
		t.Fatalf("Expected one pre-aggregate, got %d", len(pre))
	}
	if !pre[0].Approximate {
		t.Error("Expected hull fallback flagged")
	}
	if got := vmath.SignedArea(pre[0].Outline); math.Abs(got-3) > 1e-9 {
		t.Errorf("Expected hull area 3, got %v", got)
	}

	areas := MergePreAggregatesIntoAreas(pre)
	if len(areas) != 1 || !areas[0].Approximate {
		t.Errorf("Expected the approximate flag carried to the area, got %+v", areas)
	}
}

func TestMergePreAggregatesIntoAreas(t *testing.T) {
	pre := ComputePreAggregates([]ObstacleRecord{
		{Obstacle: 1, Floor: 0, Outline: rect(0, 0, 2, 2)},
		{Obstacle: 2, Floor: 1, Outline: rect(1, 0, 3, 2)},
		{Obstacle: 3, Floor: 1, Outline: rect(8, 8, 9, 9)},
	})
	areas := MergePreAggregatesIntoAreas(pre)
	if len(areas) != 2 {
		t.Fatalf("Expected 2 areas, got %d", len(areas))
	}
	a := areas[0]
	if len(a.Floors) != 2 || a.Floors[0] != 0 || a.Floors[1] != 1 {
		t.Errorf("Expected area spanning floors 0 and 1, got %v", a.Floors)
	}
	if len(a.Obstacles) != 2 {
		t.Errorf("Expected obstacles 1 and 2, got %v", a.Obstacles)
	}
	if !vmath.PolygonsEqual(a.Outline, rect(0, 0, 3, 2), 1e-9) {
		t.Errorf("Expected 3x2 outline, got %v", a.Outline)
	}
	if a.Bounds != vmath.Bounds(a.Outline) {
		t.Errorf("Bounds %v do not match outline", a.Bounds)
	}
	if a.Approximate {
		t.Error("Exact cross-floor union flagged as approximate")
	}
	if areas[0].ID == areas[1].ID {
		t.Error("Area ids not unique")
	}
}
