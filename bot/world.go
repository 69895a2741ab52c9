package bot

import "github.com/lixenwraith/navcore/vmath"

// NavMesh is the static walkable surface query service
// Implementations must be safe for concurrent reads
type NavMesh interface {
	// IsPointInside reports whether pos lies on the walkable surface
	IsPointInside(pos vmath.Vec3F) bool
	// RayCast walks from p1 toward p2 on the surface; blocked reports a hit and where
	RayCast(p1, p2 vmath.Vec3F) (hit vmath.Vec3F, blocked bool)
	// NearestInside returns the closest walkable point within radius of pos
	NearestInside(pos vmath.Vec3F, radius float64) (vmath.Vec3F, bool)
}

// CollisionBridge is the physics visibility query
type CollisionBridge interface {
	HasLineOfSight(p1, p2 vmath.Vec3F) bool
}

// Population gives read access to other bots during a frame
// States are snapshots taken before agents update, so parallel bots read consistent data
type Population interface {
	Neighbours(self string, pos vmath.Vec3F, radius float64) []State
}
