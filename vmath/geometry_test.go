package vmath

import (
	"math"
	"testing"
)

func square(x0, y0, x1, y1 float64) Polygon {
	return RectPolygon(Vec2F{X: x0, Y: y0}, Vec2F{X: x1, Y: y1})
}

func TestSegmentIntersections(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 Vec2F
		q1, q2 Vec2F
		hits   int
		t0     float64
	}{
		{"crossing", Vec2F{0, 0}, Vec2F{2, 2}, Vec2F{0, 2}, Vec2F{2, 0}, 1, 0.5},
		{"touching end", Vec2F{0, 0}, Vec2F{1, 0}, Vec2F{1, 0}, Vec2F{1, 1}, 1, 1},
		{"disjoint", Vec2F{0, 0}, Vec2F{1, 0}, Vec2F{0, 1}, Vec2F{1, 1}, 0, 0},
		{"collinear overlap", Vec2F{0, 0}, Vec2F{4, 0}, Vec2F{1, 0}, Vec2F{3, 0}, 2, 0.25},
		{"collinear apart", Vec2F{0, 0}, Vec2F{1, 0}, Vec2F{2, 0}, Vec2F{3, 0}, 0, 0},
		{"zero length", Vec2F{1, 1}, Vec2F{1, 1}, Vec2F{0, 0}, Vec2F{2, 2}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := SegmentIntersections(tt.p1, tt.p2, tt.q1, tt.q2)
			if len(hits) != tt.hits {
				t.Fatalf("Expected %d hits, got %v", tt.hits, hits)
			}
			if tt.hits > 0 && math.Abs(hits[0].T-tt.t0) > 1e-9 {
				t.Errorf("Expected first hit at t=%v, got %v", tt.t0, hits[0].T)
			}
		})
	}
}

func TestDistPointSegment(t *testing.T) {
	a, b := Vec2F{0, 0}, Vec2F{4, 0}
	if d := DistPointSegment(Vec2F{2, 3}, a, b); math.Abs(d-3) > 1e-12 {
		t.Errorf("Expected 3, got %v", d)
	}
	if d := DistPointSegment(Vec2F{-3, 4}, a, b); math.Abs(d-5) > 1e-12 {
		t.Errorf("Expected distance to endpoint 5, got %v", d)
	}
	if _, tp := ClosestPointOnSegment(Vec2F{9, 1}, a, b); tp != 1 {
		t.Errorf("Expected clamped parameter 1, got %v", tp)
	}
}

func TestPolygonContainment(t *testing.T) {
	p := square(0, 0, 2, 2)
	if SignedArea(p) <= 0 {
		t.Errorf("Expected counter-clockwise rectangle, area %v", SignedArea(p))
	}
	if !PointStrictlyInside(Vec2F{1, 1}, p, 1e-6) {
		t.Error("Centre should be inside")
	}
	if PointStrictlyInside(Vec2F{2, 1}, p, 1e-6) {
		t.Error("Boundary point must not count as strictly inside")
	}
	if !PointOnBoundary(Vec2F{2, 1}, p, 1e-6) {
		t.Error("Expected boundary detection")
	}
	if PointStrictlyInside(Vec2F{3, 1}, p, 1e-6) {
		t.Error("Outside point reported inside")
	}
}

func TestSimplifyAndCanonical(t *testing.T) {
	p := Polygon{{2, 0}, {2, 2}, {1, 2}, {0, 2}, {0, 0}, {0, 0}, {1, 0}}
	s := Simplify(p, 1e-9)
	if len(s) != 4 {
		t.Fatalf("Expected 4 corners, got %v", s)
	}
	if !PolygonsEqual(s, square(0, 0, 2, 2), 1e-9) {
		t.Errorf("Simplified outline differs: %v", s)
	}
	c := Canonical(s)
	if c[0] != (Vec2F{0, 0}) {
		t.Errorf("Expected canonical start at origin, got %v", c[0])
	}
	if IsDegenerate(Polygon{{0, 0}, {1, 1}, {2, 2}}, 1e-9) != true {
		t.Error("Collinear triangle should be degenerate")
	}
}

func TestConvexHull(t *testing.T) {
	pts := []Vec2F{{0, 0}, {2, 0}, {1, 1}, {2, 2}, {0, 2}, {1, 0}}
	h := ConvexHull(pts)
	if len(h) != 4 {
		t.Fatalf("Expected 4 hull points, got %v", h)
	}
	if math.Abs(SignedArea(h)-4) > 1e-12 {
		t.Errorf("Expected area 4, got %v", SignedArea(h))
	}
}

func TestCellsAlong(t *testing.T) {
	var cells []CellHit
	for c := range CellsAlong(0.5, 0.5, 3.5, 0.5) {
		cells = append(cells, c)
	}
	if len(cells) != 4 || cells[0].X != 0 || cells[3].X != 3 {
		t.Fatalf("Unexpected horizontal traversal %v", cells)
	}
	// Entry parameters: the segment spans 3 cells of width 1
	for i, want := range []float64{0, 1.0 / 6, 0.5, 5.0 / 6} {
		if math.Abs(cells[i].T-want) > 1e-12 {
			t.Errorf("Cell %d: expected entry %v, got %v", i, want, cells[i].T)
		}
	}

	var back []CellHit
	for c := range CellsAlong(2.5, 1.5, 0.5, 1.5) {
		back = append(back, c)
	}
	if len(back) != 3 || back[0].X != 2 || back[2].X != 0 || back[2].Y != 1 {
		t.Errorf("Unexpected reverse traversal %v", back)
	}

	count := 0
	for range CellsAlong(0.5, 0.5, 5.5, 5.5) {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("Expected early stop after 3 cells, got %d", count)
	}

	var diag []CellHit
	for c := range CellsAlong(0.5, 0.5, 2.5, 2.5) {
		diag = append(diag, c)
	}
	if len(diag) != 3 || diag[1].X != 1 || diag[1].Y != 1 {
		t.Errorf("Expected diagonal steps through corners, got %v", diag)
	}
}

func TestVec3FHelpers(t *testing.T) {
	a := Vec3F{X: 0, Y: 0, Z: 5}
	b := Vec3F{X: 3, Y: 4, Z: 0}
	if V3FDist2D(a, b) != 5 {
		t.Errorf("Expected planar distance 5, got %v", V3FDist2D(a, b))
	}
	if V3FXY(b) != (Vec2F{3, 4}) {
		t.Errorf("Unexpected projection %v", V3FXY(b))
	}
	if got := V3FFromXY(Vec2F{1, 2}, 3); got != (Vec3F{1, 2, 3}) {
		t.Errorf("Unexpected lift %v", got)
	}
	if n := V3FMag(V3FNormalize(b)); math.Abs(n-1) > 1e-12 {
		t.Errorf("Expected unit length, got %v", n)
	}
}
