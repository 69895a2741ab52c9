package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/navcore/modifier"
	"github.com/lixenwraith/navcore/parameter"
	"github.com/lixenwraith/navcore/pathfinder"
)

func TestDefaultConfig(t *testing.T) {
	f := Default()
	if f.Scenario.Name != "crossing" || len(f.Scenario.Bots) != 3 {
		t.Fatalf("Unexpected embedded scenario: %+v", f.Scenario)
	}
	if f.Engine.Mode != "estimated" || f.Engine.FrameInterval != 50*time.Millisecond {
		t.Errorf("Unexpected engine section: %+v", f.Engine)
	}
	if got := f.Engine.Tasks["astar"].Estimate; got != 2*time.Microsecond {
		t.Errorf("Expected astar estimate 2us, got %v", got)
	}
	if got := f.Async.ModuleCapacity("nearest_vertex"); got != 32 {
		t.Errorf("Expected nearest_vertex capacity 32, got %d", got)
	}
	if got := f.Async.ModuleCapacity("other"); got != 64 {
		t.Errorf("Expected fallback capacity 64, got %d", got)
	}
	if f.PathFinder.Thresholds.AvoidanceHorizon != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s horizon, got %v", f.PathFinder.Thresholds.AvoidanceHorizon)
	}
	o := f.Scenario.Obstacles[0]
	if o.Appear != time.Second || o.Vanish != 8*time.Second || len(o.Polygon()) != 4 {
		t.Errorf("Unexpected first obstacle: %+v", o)
	}
	if got := f.Scenario.Bots[1].DestinationPos(); got.X != 0 || got.Y != 7 {
		t.Errorf("Unexpected bravo destination %v", got)
	}
}

func TestSparseFileKeepsDefaults(t *testing.T) {
	f, err := Parse([]byte(`
[pathfinder]
goal_reached = "distance"

[scenario]
[[scenario.bots]]
id = "a"
start = [0.0, 0.0, 0.0]
destination = [3.0, 3.0, 0.0]
max_speed = 1.0
`))
	if err != nil {
		t.Fatal(err)
	}
	if f.PathFinder.Goto != "straight" || f.PathFinder.FindNodes != "nearest" {
		t.Errorf("Expected default strategies, got %+v", f.PathFinder)
	}
	if f.PathFinder.Thresholds.GoalReachedMin != parameter.GoalReachedDistMin {
		t.Errorf("Expected default thresholds, got %+v", f.PathFinder.Thresholds)
	}
	if f.Engine.Mode != "measured" || f.Scenario.Grid.Width != 10 {
		t.Errorf("Expected default engine and grid, got %+v %+v", f.Engine, f.Scenario.Grid)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown strategy", "[pathfinder]\ngoto = \"teleport\"", ErrUnknownStrategy},
		{"unknown key", "[pathfinder]\ngotoo = \"straight\"", ErrInvalid},
		{"bad mode", "[engine]\nmode = \"fast\"", ErrInvalid},
		{"bad capacity", "[async]\ncapacity = 0", ErrInvalid},
		{"small grid", "[scenario.grid]\nwidth = 1\nheight = 5\nspacing = 1.0", ErrInvalid},
		{"bad obstacle", "[[scenario.obstacles]]\nid = 1\nrect = [0.0, 1.0]", ErrInvalid},
		{"vanish before appear", "[[scenario.obstacles]]\nid = 1\nrect = [0.0, 0.0, 1.0, 1.0]\nappear = \"2s\"\nvanish = \"1s\"", ErrInvalid},
		{"duplicate bot", "[[scenario.bots]]\nid = \"a\"\nmax_speed = 1.0\n[[scenario.bots]]\nid = \"a\"\nmax_speed = 1.0", ErrInvalid},
		{"slow bot", "[[scenario.bots]]\nid = \"a\"", ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := Parse([]byte("[pathfinder")); err == nil {
		t.Error("Expected a syntax error")
	}
}

func TestBuildSelectsStrategies(t *testing.T) {
	c := defaultPathFinder()
	c.Goto = "queuing"
	c.GoalReached = "dont_queue"
	c.NodeReached = "passed"
	c.Accident = "stuck"
	c.DirectWay = "can_go"
	c.CanGo = "navmesh_lpf"
	c.EdgeAwareness = "distance_time"
	c.FindNodes = "reachable"
	c.Steering = "avoidance"
	c.Thresholds.StuckWindow = 3 * time.Second
	c.Thresholds.ForgetDelay = 4 * time.Second

	m, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Goto.(*modifier.GotoQueuing); !ok {
		t.Errorf("Expected queuing goto, got %T", m.Goto)
	}
	if cg, ok := m.CanGo.(modifier.CanGoNavMesh); !ok || !cg.UseLpf {
		t.Errorf("Expected LPF-aware navmesh CanGo, got %#v", m.CanGo)
	}
	if s, ok := m.Accident.(*modifier.DetectAccidentStuck); !ok || s.Window != 3*time.Second {
		t.Errorf("Expected stuck detector with 3s window, got %#v", m.Accident)
	}
	if e, ok := m.EdgeAwareness.(*modifier.EdgeStatusAwarenessDistanceTime); !ok || e.ForgetDelay != 4*time.Second {
		t.Errorf("Expected distance-time awareness with 4s delay, got %#v", m.EdgeAwareness)
	}

	env := pathfinder.Environment{HasLpf: true, HasMesh: true, HasCollision: true, HasCrowd: true}
	if err := pathfinder.CheckModifierDependencies(m, env); err != nil {
		t.Errorf("Expected a consistent set, got %v", err)
	}

	// Each call builds independent strategy state
	m2, _ := c.Build()
	if m.Goto == m2.Goto {
		t.Error("Expected a fresh modifier set per Build")
	}
}

func TestBuildBadThresholdsCaughtByDependencyCheck(t *testing.T) {
	c := defaultPathFinder()
	c.Thresholds.GoalReachedMin = 1
	c.Thresholds.GoalReachedMax = 0.5
	m, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := pathfinder.CheckModifierDependencies(m, pathfinder.Environment{}); !errors.Is(err, modifier.ErrBadThreshold) {
		t.Errorf("Expected ErrBadThreshold, got %v", err)
	}
}

func TestLoadAndEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "navcore.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load of encoded default: %v", err)
	}
	if f.Scenario.Name != "crossing" || len(f.Scenario.Obstacles) != 2 {
		t.Errorf("Round trip lost data: %+v", f.Scenario)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
