package pathfinder

import (
	"testing"
	"time"

	"github.com/lixenwraith/navcore/async"
	"github.com/lixenwraith/navcore/bot"
	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/modifier"
	"github.com/lixenwraith/navcore/vmath"
	"github.com/lixenwraith/navcore/world"
)

func TestDriversShareFullAsyncModule(t *testing.T) {
	f := newFixture(t, 6, 6, nil)
	mgr := async.NewManager(async.Config{Graph: f.g, Status: f.reg})
	t.Cleanup(mgr.Close)
	if _, err := mgr.Register(async.ModuleNearestVertex, 1); err != nil {
		t.Fatal(err)
	}

	crowd := world.NewCrowd()
	sched := engine.NewFrameScheduler(engine.FrameSchedulerConfig{
		Clock:       f.clock,
		Async:       mgr,
		Status:      f.reg,
		Parallelism: 3,
	})
	sched.AddUpdater(crowd)

	cfg := f.config()
	cfg.Async = mgr
	cfg.Crowd = crowd

	starts := []vmath.Vec3F{v3(0, 0), v3(5, 0), v3(0, 5)}
	goals := []vmath.Vec3F{v3(5, 5), v3(0, 5), v3(5, 0)}
	drivers := make([]*Driver, len(starts))
	for i, s := range starts {
		m := DefaultModifiers()
		m.FindNodes = modifier.NewFindNodesNearest(true)
		b := bot.New(string(rune('a'+i)), s, 2)
		d := NewDriver(f.pathFinder(t, b, cfg, m), true)
		d.SetDestination(goals[i])
		drivers[i] = d
		crowd.Add(d)
		sched.AddAgent(d)
	}

	allArrived := func() bool {
		for _, d := range drivers {
			if !d.Arrived() {
				return false
			}
		}
		return true
	}
	for frame := 0; !allArrived(); frame++ {
		if frame > 1000 {
			for _, d := range drivers {
				pf := d.PathFinder()
				t.Logf("%s at %v state %s err %v", d.ID(), pf.Bot().Position, pf.State(), pf.Err())
			}
			t.Fatal("Drivers did not all arrive")
		}
		f.clock.Advance(frameStep)
		sched.Step()
		// Let the worker finish between frames
		time.Sleep(time.Millisecond)
	}

	for i, d := range drivers {
		if dist := vmath.V3FDist2D(d.PathFinder().Bot().Position, goals[i]); dist > 0.6 {
			t.Errorf("%s stopped %v from its goal", d.ID(), dist)
		}
	}
	if got := f.count("async." + async.ModuleNearestVertex + ".sync"); got == 0 {
		t.Error("Expected requests over capacity computed synchronously")
	}
	if got := f.count("async." + async.ModuleNearestVertex + ".added"); got == 0 {
		t.Error("Expected some requests queued")
	}
}

func TestDriverIdleWithoutDestination(t *testing.T) {
	f := newFixture(t, 3, 3, nil)
	b := bot.New("idle", v3(1, 1), 2)
	d := NewDriver(f.pathFinder(t, b, f.config(), DefaultModifiers()), true)

	d.UpdateFrame(engine.Frame{Number: 1, Now: f.clock.Now(), Delta: frameStep})
	if b.Position != v3(1, 1) || d.Arrived() {
		t.Errorf("Expected an idle bot to stay put, at %v", b.Position)
	}
	if d.Frames() != 1 {
		t.Errorf("Expected 1 frame, got %d", d.Frames())
	}
	if s := d.Snapshot(); s.HasGoal {
		t.Error("Expected no goal in snapshot")
	}

	d.SetDestination(v3(2, 2))
	for i := 0; !d.Arrived(); i++ {
		if i > 200 {
			t.Fatalf("Not arrived, at %v", b.Position)
		}
		f.clock.Advance(frameStep)
		d.UpdateFrame(engine.Frame{Number: uint64(i + 2), Now: f.clock.Now(), Delta: frameStep})
	}
	if s := d.Snapshot(); !s.HasGoal || s.Goal != v3(2, 2) {
		t.Errorf("Expected goal in snapshot, got %+v", s)
	}
}
