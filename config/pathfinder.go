package config

import (
	"fmt"
	"time"

	"github.com/lixenwraith/navcore/modifier"
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/pathfinder"
)

// PathFinderConfig selects one strategy per modifier slot by name and tunes their thresholds
// An empty optional slot keeps the path finder's no-op default
type PathFinderConfig struct {
	Goto          string `toml:"goto"`           // straight, queuing
	CanGo         string `toml:"can_go"`         // navmesh, navmesh_lpf, line_of_sight
	GoalReached   string `toml:"goal_reached"`   // distance, dont_queue
	NodeReached   string `toml:"node_reached"`   // distance, passed
	GoalChanged   string `toml:"goal_changed"`   // distance, vertex
	Accident      string `toml:"accident"`       // none, stuck, off_path
	RefineGoal    string `toml:"refine_goal"`    // none, navmesh, lpf
	DirectWay     string `toml:"direct_way"`     // none, can_go
	EdgeAwareness string `toml:"edge_awareness"` // immediate, distance_time
	FindNodes     string `toml:"find_nodes"`     // nearest, reachable
	Steering      string `toml:"steering"`       // direct, avoidance

	// Async routes the lookups that support it through the async manager
	Async bool `toml:"async"`

	TabooDuration time.Duration `toml:"taboo_duration"`
	RetryInterval time.Duration `toml:"retry_interval"`

	Thresholds Thresholds `toml:"thresholds"`
}

// Thresholds are the tunables shared by several strategies
type Thresholds struct {
	GoalReachedMin      float64       `toml:"goal_reached_min"`
	GoalReachedMax      float64       `toml:"goal_reached_max"`
	NodeReachedMin      float64       `toml:"node_reached_min"`
	NodeReachedMax      float64       `toml:"node_reached_max"`
	GoalChangedDistance float64       `toml:"goal_changed_distance"`
	QueueSpacing        float64       `toml:"queue_spacing"`
	StuckWindow         time.Duration `toml:"stuck_window"`
	StuckMinProgress    float64       `toml:"stuck_min_progress"`
	OffPathDistance     float64       `toml:"off_path_distance"`
	AwarenessDistance   float64       `toml:"awareness_distance"`
	ForgetDelay         time.Duration `toml:"forget_delay"`
	RefineRadius        float64       `toml:"refine_radius"`
	DirectWayDistance   float64       `toml:"direct_way_distance"`
	AvoidanceRadius     float64       `toml:"avoidance_radius"`
	AvoidanceHorizon    time.Duration `toml:"avoidance_horizon"`
}

func defaultPathFinder() PathFinderConfig {
	return PathFinderConfig{
		Goto:          "straight",
		GoalReached:   "distance",
		NodeReached:   "distance",
		GoalChanged:   "distance",
		Accident:      "none",
		RefineGoal:    "none",
		DirectWay:     "none",
		FindNodes:     "nearest",
		Steering:      "direct",
		TabooDuration: parameter.TabooDuration,
		RetryInterval: parameter.SearchRetryInterval,
		Thresholds: Thresholds{
			GoalReachedMin:      parameter.GoalReachedDistMin,
			GoalReachedMax:      parameter.GoalReachedDistMax,
			NodeReachedMin:      parameter.PathNodeReachedDistMin,
			NodeReachedMax:      parameter.PathNodeReachedDistMax,
			GoalChangedDistance: parameter.GoalChangedDistance,
			QueueSpacing:        parameter.QueueSpacing,
			StuckWindow:         parameter.StuckWindow,
			StuckMinProgress:    parameter.StuckMinProgress,
			OffPathDistance:     parameter.OffPathDistance,
			AwarenessDistance:   parameter.EdgeAwarenessDistance,
			ForgetDelay:         parameter.EdgeForgetDelay,
			RefineRadius:        parameter.RefineGoalSearchRadius,
			DirectWayDistance:   parameter.DirectWayMaxDistance,
			AvoidanceRadius:     parameter.AvoidanceRadius,
			AvoidanceHorizon:    parameter.AvoidanceHorizon,
		},
	}
}

// Validate resolves every name once so typos fail at load time
func (c PathFinderConfig) Validate() error {
	_, err := c.Build()
	return err
}

// Build constructs a fresh modifier set
// Call it once per bot: strategies keep per-bot state
func (c PathFinderConfig) Build() (pathfinder.Modifiers, error) {
	var m pathfinder.Modifiers
	th := c.Thresholds

	switch c.Goto {
	case "straight":
		m.Goto = modifier.NewGotoStraight()
	case "queuing":
		g := modifier.NewGotoQueuing()
		g.Spacing = th.QueueSpacing
		g.SameGoalDistance = th.GoalChangedDistance
		m.Goto = g
	default:
		return m, unknown("goto", c.Goto)
	}

	switch c.CanGo {
	case "":
	case "navmesh":
		m.CanGo = modifier.CanGoNavMesh{}
	case "navmesh_lpf":
		m.CanGo = modifier.CanGoNavMesh{UseLpf: true}
	case "line_of_sight":
		m.CanGo = modifier.CanGoLineOfSight{}
	default:
		return m, unknown("can_go", c.CanGo)
	}

	goalHysteresis := modifier.Hysteresis{DistMin: th.GoalReachedMin, DistMax: th.GoalReachedMax}
	switch c.GoalReached {
	case "distance":
		d := modifier.NewDetectGoalReachedDistance()
		d.Hysteresis = goalHysteresis
		m.GoalReached = d
	case "dont_queue":
		d := modifier.NewDetectGoalReachedDontQueue()
		d.Hysteresis = goalHysteresis
		d.QueueDistance = 4 * th.QueueSpacing
		d.SameGoalDistance = th.GoalChangedDistance
		m.GoalReached = d
	default:
		return m, unknown("goal_reached", c.GoalReached)
	}

	nodeHysteresis := modifier.Hysteresis{DistMin: th.NodeReachedMin, DistMax: th.NodeReachedMax}
	switch c.NodeReached {
	case "distance":
		m.NodeReached = &modifier.DetectPathNodeReachedDistance{Hysteresis: nodeHysteresis}
	case "passed":
		m.NodeReached = &modifier.DetectPathNodeReachedPassed{Hysteresis: nodeHysteresis}
	default:
		return m, unknown("node_reached", c.NodeReached)
	}

	switch c.GoalChanged {
	case "distance":
		m.GoalChanged = modifier.DetectGoalChangedDistance{Threshold: th.GoalChangedDistance}
	case "vertex":
		m.GoalChanged = modifier.DetectGoalChangedVertex{}
	default:
		return m, unknown("goal_changed", c.GoalChanged)
	}

	switch c.Accident {
	case "", "none":
		m.Accident = modifier.DetectAccidentNone{}
	case "stuck":
		m.Accident = &modifier.DetectAccidentStuck{Window: th.StuckWindow, MinProgress: th.StuckMinProgress}
	case "off_path":
		m.Accident = modifier.DetectAccidentOffPath{MaxDistance: th.OffPathDistance}
	default:
		return m, unknown("accident", c.Accident)
	}

	switch c.RefineGoal {
	case "", "none":
		m.RefineGoal = modifier.RefineGoalNone{}
	case "navmesh":
		m.RefineGoal = modifier.RefineGoalNavMesh{Radius: th.RefineRadius}
	case "lpf":
		r := modifier.NewRefineGoalLpf()
		r.Radius = th.RefineRadius
		m.RefineGoal = r
	default:
		return m, unknown("refine_goal", c.RefineGoal)
	}

	switch c.DirectWay {
	case "", "none":
		m.DirectWay = modifier.CheckDirectWayNone{}
	case "can_go":
		d := modifier.NewCheckDirectWayCanGo(c.Async)
		d.MaxDistance = th.DirectWayDistance
		d.Tolerance = th.GoalChangedDistance
		m.DirectWay = d
	default:
		return m, unknown("direct_way", c.DirectWay)
	}

	switch c.EdgeAwareness {
	case "":
	case "immediate":
		m.EdgeAwareness = modifier.EdgeStatusAwarenessImmediate{}
	case "distance_time":
		e := modifier.NewEdgeStatusAwarenessDistanceTime()
		e.AwarenessDistance = th.AwarenessDistance
		e.ForgetDelay = th.ForgetDelay
		m.EdgeAwareness = e
	default:
		return m, unknown("edge_awareness", c.EdgeAwareness)
	}

	switch c.FindNodes {
	case "nearest":
		f := modifier.NewFindNodesNearest(c.Async)
		f.Tolerance = th.GoalChangedDistance
		m.FindNodes = f
	case "reachable":
		f := modifier.NewFindNodesReachable()
		f.Radius = th.RefineRadius
		m.FindNodes = f
	default:
		return m, unknown("find_nodes", c.FindNodes)
	}

	switch c.Steering {
	case "", "direct":
		m.Steering = modifier.SteeringDirect{}
	case "avoidance":
		m.Steering = modifier.SteeringAvoidance{Radius: th.AvoidanceRadius, Horizon: th.AvoidanceHorizon}
	default:
		return m, unknown("steering", c.Steering)
	}

	return m, nil
}

func unknown(slot, name string) error {
	return fmt.Errorf("%w: pathfinder.%s = %q", ErrUnknownStrategy, slot, name)
}
