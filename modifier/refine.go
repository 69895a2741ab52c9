package modifier

import (
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/vmath"
)

// RefineGoalNone keeps the destination as requested
type RefineGoalNone struct{}

func (RefineGoalNone) Refine(_ *Context, dest vmath.Vec3F) (vmath.Vec3F, bool) {
	return dest, true
}

// RefineGoalNavMesh snaps the destination onto the NavMesh within Radius
type RefineGoalNavMesh struct {
	Radius float64
}

// NewRefineGoalNavMesh uses the default search radius
func NewRefineGoalNavMesh() RefineGoalNavMesh {
	return RefineGoalNavMesh{Radius: parameter.RefineGoalSearchRadius}
}

func (r RefineGoalNavMesh) Refine(ctx *Context, dest vmath.Vec3F) (vmath.Vec3F, bool) {
	if ctx.Mesh == nil {
		return dest, true
	}
	return ctx.Mesh.NearestInside(dest, r.Radius)
}

// Needs implements CollaboratorUser
func (RefineGoalNavMesh) Needs() Collaborators {
	return NeedMesh
}

// RefineGoalLpf pushes a destination out of LPF areas, Margin clear of the boundary
// The pushed goal is rejected when it moved more than Radius or, with a NavMesh, left the walkable surface
type RefineGoalLpf struct {
	Margin float64
	Radius float64
}

// NewRefineGoalLpf uses the default margin and radius
func NewRefineGoalLpf() RefineGoalLpf {
	return RefineGoalLpf{Margin: parameter.LpfGoalMargin, Radius: parameter.RefineGoalSearchRadius}
}

func (r RefineGoalLpf) Refine(ctx *Context, dest vmath.Vec3F) (vmath.Vec3F, bool) {
	p := vmath.V3FXY(dest)
	if !ctx.Areas.IsPointInside(p) {
		return dest, true
	}
	out, ok := ctx.Areas.NearestOutsidePoint(p, r.Margin)
	if !ok || vmath.V2FDist(p, out) > r.Radius {
		return dest, false
	}
	refined := vmath.V3FFromXY(out, dest.Z)
	if ctx.Mesh != nil && !ctx.Mesh.IsPointInside(refined) {
		return dest, false
	}
	return refined, true
}

// NeedsLpf implements LpfAware
func (RefineGoalLpf) NeedsLpf() bool {
	return true
}
