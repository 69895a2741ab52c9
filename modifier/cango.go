package modifier

import (
	"github.com/lixenwraith/navcore/vmath"
)

// CanGoNavMesh casts a ray on the NavMesh, optionally rejecting segments crossing LPF areas
type CanGoNavMesh struct {
	UseLpf bool
}

func (c CanGoNavMesh) CanGo(v View, from, to vmath.Vec3F) bool {
	if v.Mesh != nil {
		if !v.Mesh.IsPointInside(to) {
			return false
		}
		if _, blocked := v.Mesh.RayCast(from, to); blocked {
			return false
		}
	}
	if c.UseLpf && v.Areas.IsEdgeBlocked(vmath.V3FXY(from), vmath.V3FXY(to)) {
		return false
	}
	return true
}

// Needs implements CollaboratorUser
func (c CanGoNavMesh) Needs() Collaborators {
	return NeedMesh
}

// NeedsLpf implements LpfAware
func (c CanGoNavMesh) NeedsLpf() bool {
	return c.UseLpf
}

// CanGoLineOfSight asks the physics layer for visibility
type CanGoLineOfSight struct{}

func (CanGoLineOfSight) CanGo(v View, from, to vmath.Vec3F) bool {
	if v.Collision == nil {
		return false
	}
	return v.Collision.HasLineOfSight(from, to)
}

// Needs implements CollaboratorUser
func (CanGoLineOfSight) Needs() Collaborators {
	return NeedCollision
}
