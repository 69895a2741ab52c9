package parameter

// Local path-finding obstacle aggregation
const (
	// LpfMinOutlineArea is the area below which an obstacle outline is ignored
	LpfMinOutlineArea = 1e-6

	// LpfMergeEpsilon is the vertex welding tolerance of polygon merge
	LpfMergeEpsilon = 1e-7

	// LpfBoundaryEpsilon is the distance under which a point counts as on an area boundary
	LpfBoundaryEpsilon = 1e-6

	// LpfMaxRefinePushes bounds the outward pushes of a goal leaving overlapping areas
	LpfMaxRefinePushes = 8

	// LpfGoalMargin is the clearance kept when a goal is pushed out of an area
	LpfGoalMargin = 0.1
)
