package parameter

import "time"

// Frame Loop & Aperiodic Tasks
const (
	// FrameInterval is the simulation frame interval used by the frame scheduler
	FrameInterval = 50 * time.Millisecond

	// AstarTaskAllowance is the per-frame time allowance of the A* propagation task
	AstarTaskAllowance = 2 * time.Millisecond

	// LpfTaskAllowance is the per-frame time allowance of the LPF merge task
	LpfTaskAllowance = 1 * time.Millisecond

	// AsyncTaskAllowance is the per-frame time allowance of synchronous async fallbacks
	AsyncTaskAllowance = 1 * time.Millisecond

	// AstarVertexEstimate is the estimated cost of one vertex expansion in deterministic mode
	AstarVertexEstimate = 2 * time.Microsecond

	// LpfFloorEstimate is the estimated cost of rebuilding one floor in deterministic mode
	LpfFloorEstimate = 100 * time.Microsecond

	// AsyncRequestEstimate is the estimated cost of one synchronous fallback computation
	AsyncRequestEstimate = 20 * time.Microsecond
)

// Queues
const (
	// LpfUpdateQueueSize is the fixed capacity of the obstacle update ring buffer
	LpfUpdateQueueSize = 1024

	// LpfUpdateQueueMask is the bitmask for fast modulo operations (1024 - 1)
	LpfUpdateQueueMask = 1023

	// AsyncModuleCapacity is the default request capacity per async buffer
	AsyncModuleCapacity = 64
)
