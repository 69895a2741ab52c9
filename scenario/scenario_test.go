package scenario

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lixenwraith/navcore/config"
	"github.com/lixenwraith/navcore/status"
	"github.com/lixenwraith/navcore/vmath"
)

const laneDoc = `
[pathfinder]
edge_awareness = "immediate"
async = true

[lpf]
enabled = true

[async]
enabled = true
capacity = 1

[engine]
mode = "estimated"
frame_interval = "100ms"
parallelism = 1

[scenario]
name = "lane"
max_frames = 600

[scenario.grid]
width = 6
height = 4
spacing = 1.0
cell_size = 2

[[scenario.obstacles]]
id = 7
rect = [2.7, 0.5, 3.3, 1.5]
appear = "500ms"
vanish = "5s"

[[scenario.bots]]
id = "a"
start = [0.0, 1.0, 0.0]
destination = [5.0, 1.0, 0.0]
max_speed = 2.0

[[scenario.bots]]
id = "b"
start = [0.0, 3.0, 0.0]
destination = [5.0, 2.0, 0.0]
max_speed = 2.0
`

func parse(t *testing.T, doc string) *config.File {
	t.Helper()
	f, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func build(t *testing.T, f *config.File, reg *status.Registry) *Scenario {
	t.Helper()
	s, err := New(f, Options{Status: reg, Deterministic: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestLaneScenarioAvoidsObstacle(t *testing.T) {
	reg := status.NewRegistry()
	s := build(t, parse(t, laneDoc), reg)
	obstacle := vmath.Vec2F{X: 3, Y: 1}

	sawObstacle := false
	for frame := 0; !s.Done(); frame++ {
		if frame > 600 {
			var buf bytes.Buffer
			s.Report().Write(&buf)
			t.Fatalf("Bots did not arrive:\n%s", buf.String())
		}
		s.Step()
		if len(s.Obstacles()) == 0 {
			continue
		}
		sawObstacle = true
		areas := s.Lpf.Areas()
		if !areas.IsPointInside(obstacle) {
			t.Fatal("Expected the placed obstacle published in the same frame")
		}
		for _, d := range s.Drivers {
			if p := d.PathFinder().Bot().Position; areas.IsPointInside(vmath.V3FXY(p)) {
				t.Fatalf("%s entered the obstacle at %v", d.ID(), p)
			}
		}
	}
	if !sawObstacle {
		t.Fatal("Expected the obstacle to appear")
	}

	r := s.Report()
	if r.Arrived != 2 {
		t.Errorf("Expected both bots to arrive, got %d", r.Arrived)
	}
	for _, b := range r.Bots {
		if b.Remaining > 0.6 {
			t.Errorf("%s stopped %.2f from its destination", b.ID, b.Remaining)
		}
	}
	if reg.Ints.Get("pathfinder.edge_blocked").Load() == 0 {
		t.Error("Expected the obstacle to invalidate a path")
	}
	if reg.Ints.Get("async.nearest_vertex.sync").Load() == 0 {
		t.Error("Expected the capacity 1 module to overflow")
	}

	// Keep stepping until the obstacle is removed
	for i := 0; len(s.Obstacles()) > 0; i++ {
		if i > 100 {
			t.Fatal("Obstacle never removed")
		}
		s.Step()
	}
	if s.Lpf.Areas().IsPointInside(obstacle) {
		t.Error("Expected the area gone once the obstacle vanished")
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() Report {
		s := build(t, parse(t, laneDoc), nil)
		r, err := s.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return r
	}
	first, second := run(), run()
	if first.Frames != second.Frames {
		t.Fatalf("Frame counts differ: %d vs %d", first.Frames, second.Frames)
	}
	for i := range first.Bots {
		if first.Bots[i].Position != second.Bots[i].Position {
			t.Errorf("%s ended at %v then %v", first.Bots[i].ID, first.Bots[i].Position, second.Bots[i].Position)
		}
	}
}

func TestRunStopsAtMaxFrames(t *testing.T) {
	f := parse(t, laneDoc)
	f.Scenario.MaxFrames = 3
	s := build(t, f, nil)
	r, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.Frames != 3 || r.Arrived != 0 {
		t.Errorf("Expected 3 frames and no arrival, got %+v", r)
	}

	var buf bytes.Buffer
	r.Write(&buf)
	if !strings.Contains(buf.String(), "arrived: 0/2") {
		t.Errorf("Unexpected report:\n%s", buf.String())
	}
}

func TestRunHonorsContext(t *testing.T) {
	s := build(t, parse(t, laneDoc), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewRejectsEmptyScenario(t *testing.T) {
	f := parse(t, "[scenario]\nname = \"empty\"")
	if _, err := New(f, Options{}); !errors.Is(err, ErrNoBots) {
		t.Errorf("Expected ErrNoBots, got %v", err)
	}
}

func TestDefaultScenarioBuilds(t *testing.T) {
	s := build(t, config.Default(), nil)
	if s.Mesh == nil || s.Lpf == nil || s.Async == nil {
		t.Fatal("Expected every collaborator enabled by the default document")
	}
	if len(s.Drivers) != 3 {
		t.Errorf("Expected 3 drivers, got %d", len(s.Drivers))
	}
	for range 20 {
		s.Step()
	}
	if s.Scheduler.FrameCount() != 20 {
		t.Errorf("Expected 20 frames, got %d", s.Scheduler.FrameCount())
	}
}

func TestVerifyMatchesDijkstra(t *testing.T) {
	f := parse(t, `
[scenario]
seed = 11
[scenario.grid]
width = 21
height = 15
spacing = 1.0
cell_size = 5
[scenario.maze]
braiding = 0.4
[[scenario.bots]]
id = "corner"
start = [1.0, 1.0, 0.0]
destination = [19.0, 13.0, 0.0]
max_speed = 1.0
[[scenario.bots]]
id = "middle"
start = [1.0, 13.0, 0.0]
destination = [19.0, 1.0, 0.0]
max_speed = 1.0
`)
	s := build(t, f, nil)
	checks, err := Verify(s.Graph, f.Scenario.Bots)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range checks {
		if !c.Reachable {
			t.Errorf("%s: expected a connected maze", c.ID)
		}
		if !c.OK() {
			t.Errorf("%s: A* cost %v, Dijkstra %v", c.ID, c.Astar, c.Reference)
		}
	}
}
