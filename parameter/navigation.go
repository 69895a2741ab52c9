package parameter

import "time"

// Reached detection hysteresis (world units)
const (
	// GoalReachedDistMin enters the reached state
	GoalReachedDistMin = 0.3

	// GoalReachedDistMax leaves the reached state
	GoalReachedDistMax = 0.6

	// GoalReachedHeightTolerance is the vertical tolerance for goal detection
	GoalReachedHeightTolerance = 1.5

	// PathNodeReachedDistMin enters the reached state for intermediate nodes
	PathNodeReachedDistMin = 0.25

	// PathNodeReachedDistMax leaves the reached state for intermediate nodes
	PathNodeReachedDistMax = 0.5
)

// Recompute triggers
const (
	// GoalChangedDistance is how far the refined goal must move to invalidate the path
	GoalChangedDistance = 0.5

	// StuckWindow is the observation window of the stuck accident detector
	StuckWindow = 2 * time.Second

	// StuckMinProgress is the minimum planar distance covered during StuckWindow
	StuckMinProgress = 0.2

	// OffPathDistance is the lateral distance from the path segment that counts as an accident
	OffPathDistance = 2.0

	// TabooDuration is how long an edge stays excluded after an accident on it
	TabooDuration = 5 * time.Second
)

// Edge status awareness
const (
	// EdgeAwarenessDistance is how close a bot must be to notice a cleared edge
	EdgeAwarenessDistance = 5.0

	// EdgeForgetDelay is how long a cleared edge keeps being reported blocked
	EdgeForgetDelay = 2 * time.Second
)

// Movement
const (
	// GotoSlowdownDistance is the distance to the goal where speed starts to ramp down
	GotoSlowdownDistance = 1.0

	// QueueSpacing is the gap kept behind a bot heading to the same goal
	QueueSpacing = 1.0

	// AvoidanceRadius is the neighbour search radius of avoidance steering
	AvoidanceRadius = 3.0

	// AvoidanceHorizon is the time horizon used to predict collisions
	AvoidanceHorizon = 1500 * time.Millisecond

	// RefineGoalSearchRadius is the maximum distance a goal can be moved by refinement
	RefineGoalSearchRadius = 5.0

	// DirectWayMaxDistance bounds the straight-line shortcut check
	DirectWayMaxDistance = 10.0
)

// Search scheduling
const (
	// SearchRetryInterval is how long a failed search waits before retrying the same goal
	SearchRetryInterval = time.Second
)
