package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lixenwraith/navcore/async"
	"github.com/lixenwraith/navcore/bot"
	"github.com/lixenwraith/navcore/config"
	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/lpf"
	"github.com/lixenwraith/navcore/maze"
	"github.com/lixenwraith/navcore/pathfinder"
	"github.com/lixenwraith/navcore/status"
	"github.com/lixenwraith/navcore/world"
)

// ErrNoBots is returned when a scenario has nothing to drive
var ErrNoBots = errors.New("scenario has no bots")

// Options are the runtime collaborators of a scenario
type Options struct {
	// Clock drives real-time runs; nil runs on a simulated clock advanced one frame interval per Step
	Clock  engine.Clock
	Status *status.Registry
	Logger *slog.Logger
	// Deterministic waits for async results at the end of every frame so replays match exactly
	Deterministic bool
}

// Scenario is an assembled world: graph, optional NavMesh, LPF, async lookups and driven bots
type Scenario struct {
	File *config.File

	Graph     *graph.Graph
	Grid      *graph.Grid
	Walls     graph.WallChecker
	Mesh      *world.GridMesh
	Lpf       *lpf.Manager
	Async     *async.Manager
	Tasks     *engine.TaskRegistry
	Crowd     *world.Crowd
	Scheduler *engine.FrameScheduler
	Drivers   []*pathfinder.Driver

	clock         engine.Clock
	sim           *engine.MockTimeProvider
	deterministic bool
	timeline      *timeline
	status        *status.Registry
	logger        *slog.Logger
}

// New builds a scenario from a validated configuration
func New(f *config.File, opts Options) (*Scenario, error) {
	if len(f.Scenario.Bots) == 0 {
		return nil, ErrNoBots
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := status.OrNew(opts.Status)

	s := &Scenario{
		File:          f,
		deterministic: opts.Deterministic,
		status:        reg,
		logger:        logger.With(slog.String("component", "scenario")),
	}
	if opts.Clock != nil {
		s.clock = opts.Clock
	} else {
		s.sim = engine.NewMockTimeProvider(time.Unix(0, 0))
		s.clock = s.sim
	}

	if err := s.buildWorld(); err != nil {
		return nil, err
	}
	if err := s.buildEngine(); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.buildBots(); err != nil {
		s.Close()
		return nil, err
	}
	s.logger.Info("scenario ready",
		slog.String("name", f.Scenario.Name),
		slog.Int("vertices", s.Graph.VertexCount()),
		slog.Int("bots", len(s.Drivers)),
		slog.Int("obstacles", len(f.Scenario.Obstacles)))
	return s, nil
}

// buildWorld creates the graph and the world collaborators
func (s *Scenario) buildWorld() error {
	sc := s.File.Scenario
	s.Walls = wallChecker(sc)
	s.Grid = graph.BuildGrid(sc.Grid.Width, sc.Grid.Height, sc.Grid.Spacing, sc.Grid.CellSize, s.Walls)
	s.Graph = graph.New(s.logger)
	if err := s.Grid.Load(s.Graph); err != nil {
		return fmt.Errorf("load grid: %w", err)
	}
	if sc.NavMesh {
		s.Mesh = world.NewGridMesh(sc.Grid.Width, sc.Grid.Height, sc.Grid.Spacing, s.Walls)
	}
	s.Crowd = world.NewCrowd()
	return nil
}

// buildEngine creates the task budgets, LPF, async manager and frame loop
func (s *Scenario) buildEngine() error {
	ec := s.File.Engine
	mode := engine.ModeMeasured
	if ec.Mode == "estimated" {
		mode = engine.ModeEstimated
	}
	s.Tasks = engine.NewTaskRegistry(mode, s.clock, s.status, s.logger)
	for name, t := range ec.Tasks {
		s.Tasks.Register(name, t.Allowance, t.Estimate)
	}
	if ec.CostTable != "" {
		ct, err := engine.LoadCostTable(ec.CostTable)
		if err != nil {
			return err
		}
		updated := s.Tasks.ApplyCostTable(ct)
		s.logger.Info("cost table applied", slog.String("platform", ct.Platform), slog.Any("tasks", updated))
	}

	if s.File.LPF.Enabled {
		s.Lpf = lpf.NewManager(lpf.ManagerConfig{Tasks: s.Tasks, Status: s.status, Logger: s.logger})
	}

	cfg := engine.FrameSchedulerConfig{
		Clock:       s.clock,
		Tasks:       s.Tasks,
		Status:      s.status,
		Logger:      s.logger,
		Parallelism: ec.Parallelism,
	}
	if s.File.Async.Enabled {
		s.Async = async.NewManager(async.Config{Graph: s.Graph, Status: s.status, Logger: s.logger})
		for _, name := range []string{async.ModuleNearestVertex, async.ModuleDirectWay} {
			if _, err := s.Async.Register(name, s.File.Async.ModuleCapacity(name)); err != nil {
				return err
			}
		}
		cfg.Async = s.Async
	}
	s.Scheduler = engine.NewFrameScheduler(cfg)

	// Obstacle changes land before the rebuild, the crowd snapshot after every bot moved last frame
	s.timeline = newTimeline(s.File.Scenario.Obstacles, s.clock.Now(), s.Lpf, s.logger)
	s.Scheduler.AddUpdater(s.timeline)
	if s.Lpf != nil {
		s.Scheduler.AddUpdater(s.Lpf)
	}
	s.Scheduler.AddUpdater(s.Crowd)
	return nil
}

// buildBots creates one path finder and driver per bot
func (s *Scenario) buildBots() error {
	for _, spec := range s.File.Scenario.Bots {
		mods, err := s.File.PathFinder.Build()
		if err != nil {
			return err
		}
		b := bot.New(spec.ID, spec.StartPos(), spec.MaxSpeed)
		if spec.Radius > 0 {
			b.Radius = spec.Radius
		}
		pf := pathfinder.New(b, s.pathFinderConfig())
		if err := pf.Initialize(mods); err != nil {
			return fmt.Errorf("bot %s: %w", spec.ID, err)
		}
		d := pathfinder.NewDriver(pf, true)
		d.SetDestination(spec.DestinationPos())
		s.Drivers = append(s.Drivers, d)
		s.Crowd.Add(d)
		s.Scheduler.AddAgent(d)
	}
	s.Crowd.Refresh()
	return nil
}

func (s *Scenario) pathFinderConfig() pathfinder.Config {
	pc := s.File.PathFinder
	cfg := pathfinder.Config{
		Graph:         s.Graph,
		Async:         s.Async,
		Tasks:         s.Tasks,
		Clock:         s.clock,
		Crowd:         s.Crowd,
		TabooDuration: pc.TabooDuration,
		RetryInterval: pc.RetryInterval,
		Status:        s.status,
		Logger:        s.logger,
	}
	// Interface fields stay nil when the collaborator is absent
	if s.Lpf != nil {
		cfg.Lpf = s.Lpf
	}
	if s.Mesh != nil {
		cfg.Mesh = s.Mesh
		cfg.Collision = s.Mesh
	}
	return cfg
}

// --- Running ---

// Now returns the scenario clock time
func (s *Scenario) Now() time.Time {
	return s.clock.Now()
}

// Step runs one frame
// On the simulated clock time advances by the configured frame interval first
func (s *Scenario) Step() engine.Frame {
	if s.sim != nil {
		s.sim.Advance(s.File.Engine.FrameInterval)
	}
	f := s.Scheduler.Step()
	if s.deterministic && s.Async != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := s.Async.Flush(ctx); err != nil {
			s.logger.Warn("async flush timed out", slog.Any("error", err))
		}
		cancel()
	}
	return f
}

// Done reports whether every bot has arrived
func (s *Scenario) Done() bool {
	for _, d := range s.Drivers {
		if !d.Arrived() {
			return false
		}
	}
	return true
}

// Run steps until every bot arrived, MaxFrames elapsed or ctx is done
// On a real clock frames are paced by the frame interval
func (s *Scenario) Run(ctx context.Context) (Report, error) {
	limit := s.File.Scenario.MaxFrames
	var ticker *time.Ticker
	if s.sim == nil {
		ticker = time.NewTicker(s.File.Engine.FrameInterval)
		defer ticker.Stop()
	}

	for frame := 0; limit <= 0 || frame < limit; frame++ {
		if s.Done() {
			break
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return s.Report(), ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return s.Report(), err
		}
		s.Step()
	}

	r := s.Report()
	s.logger.Info("scenario finished",
		slog.Uint64("frames", r.Frames),
		slog.Int("arrived", r.Arrived),
		slog.Int("bots", len(r.Bots)))
	return r, nil
}

// Close stops the async worker
func (s *Scenario) Close() {
	if s.Async != nil {
		s.Async.Close()
	}
}

// wallChecker returns the configured walls, generated by the maze generator when requested
func wallChecker(sc config.ScenarioConfig) graph.WallChecker {
	if sc.Maze != nil {
		layout := maze.Generate(maze.Config{
			Width:    sc.Grid.Width,
			Height:   sc.Grid.Height,
			Braiding: sc.Maze.Braiding,
			Seed:     sc.Seed,
		})
		return layout.Blocked
	}
	walls := make(map[[2]int]bool, len(sc.Walls))
	for _, w := range sc.Walls {
		walls[w] = true
	}
	return func(x, y int) bool { return walls[[2]int{x, y}] }
}

// Obstacles returns the obstacles placed so far and not yet removed
func (s *Scenario) Obstacles() []config.ObstacleSpec {
	return s.timeline.Present()
}
