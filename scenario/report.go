package scenario

import (
	"fmt"
	"io"
	"math"

	"github.com/lixenwraith/navcore/astar"
	"github.com/lixenwraith/navcore/config"
	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/graph"
	"github.com/lixenwraith/navcore/pathfinder"
	"github.com/lixenwraith/navcore/vmath"
)

// Report summarizes a run
type Report struct {
	Frames  uint64
	Arrived int
	Bots    []BotReport
}

// BotReport is the outcome of one bot
type BotReport struct {
	ID       string
	Arrived  bool
	State    string
	Position vmath.Vec3F
	Err      string
	// Remaining is the planar distance left to the destination
	Remaining float64
}

// Report snapshots the current outcome of every bot
func (s *Scenario) Report() Report {
	r := Report{Frames: s.Scheduler.FrameCount()}
	for i, d := range s.Drivers {
		pf := d.PathFinder()
		b := pf.Bot()
		br := BotReport{
			ID:        d.ID(),
			Arrived:   d.Arrived(),
			State:     pf.State().String(),
			Position:  b.Position,
			Remaining: vmath.V3FDist2D(b.Position, s.File.Scenario.Bots[i].DestinationPos()),
		}
		if err := pf.Err(); err != nil {
			br.Err = err.Error()
		}
		if br.Arrived {
			r.Arrived++
		}
		r.Bots = append(r.Bots, br)
	}
	return r
}

// Write prints a plain text table
func (r Report) Write(w io.Writer) {
	fmt.Fprintf(w, "frames: %d  arrived: %d/%d\n", r.Frames, r.Arrived, len(r.Bots))
	for _, b := range r.Bots {
		line := fmt.Sprintf("  %-12s %-10s pos=(%.2f, %.2f) left=%.2f", b.ID, b.State, b.Position.X, b.Position.Y, b.Remaining)
		if b.Err != "" {
			line += "  err=" + b.Err
		}
		fmt.Fprintln(w, line)
	}
}

// --- Verification ---

// Check compares an A* search against the Dijkstra reference for one bot
type Check struct {
	ID        string
	Astar     float64
	Reference float64
	Reachable bool
}

// OK reports whether both searches agree
func (c Check) OK() bool {
	if !c.Reachable {
		return math.IsInf(c.Astar, 1)
	}
	return math.Abs(c.Astar-c.Reference) <= 1e-3*max(1, c.Reference)
}

// Verify searches every bot's start to destination on the bare graph, ignoring obstacles,
// and compares the cost with Dijkstra's
func Verify(g *graph.Graph, bots []config.BotSpec) ([]Check, error) {
	trav := astar.New(g, astar.Options{})
	checks := make([]Check, 0, len(bots))
	for _, b := range bots {
		start, ok := g.FindNearestVertex(b.StartPos())
		if !ok {
			return nil, fmt.Errorf("bot %s: %w", b.ID, pathfinder.ErrNoEndpoints)
		}
		dest, ok := g.FindNearestVertex(b.DestinationPos())
		if !ok {
			return nil, fmt.Errorf("bot %s: %w", b.ID, pathfinder.ErrNoEndpoints)
		}

		c := Check{ID: b.ID, Astar: math.Inf(1)}
		from, _ := start.Resolve(g)
		ref, reachable := graph.DijkstraCosts(g, from, nil)[dest.Key()]
		c.Reference, c.Reachable = ref, reachable

		if err := trav.Start(start, dest); err != nil {
			return nil, fmt.Errorf("bot %s: %w", b.ID, err)
		}
		if trav.Propagate(engine.Unlimited()) == astar.StatusPathFound {
			p, err := trav.BuildPath()
			if err != nil {
				return nil, fmt.Errorf("bot %s: %w", b.ID, err)
			}
			c.Astar = float64(p.TotalCost())
		}
		trav.Cancel()
		checks = append(checks, c)
	}
	return checks, nil
}
