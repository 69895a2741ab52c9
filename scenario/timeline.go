package scenario

import (
	"log/slog"
	"time"

	"github.com/lixenwraith/navcore/config"
	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/lpf"
)

// timeline pushes scheduled obstacle changes into the LPF manager
type timeline struct {
	start   time.Time
	lpf     *lpf.Manager
	logger  *slog.Logger
	entries []timelineEntry
}

type timelineEntry struct {
	spec     config.ObstacleSpec
	placed   bool
	vanished bool
}

func newTimeline(specs []config.ObstacleSpec, start time.Time, m *lpf.Manager, logger *slog.Logger) *timeline {
	t := &timeline{start: start, lpf: m, logger: logger}
	for _, s := range specs {
		t.entries = append(t.entries, timelineEntry{spec: s})
	}
	return t
}

// UpdateFrame implements engine.FrameUpdater
func (t *timeline) UpdateFrame(f engine.Frame) {
	if t.lpf == nil {
		return
	}
	elapsed := f.Now.Sub(t.start)
	for i := range t.entries {
		e := &t.entries[i]
		id := lpf.ObstacleID(e.spec.ID)
		if !e.placed && elapsed >= e.spec.Appear {
			if t.lpf.SetObstacle(id, lpf.FloorID(e.spec.Floor), e.spec.Polygon()) {
				e.placed = true
				t.logger.Debug("obstacle placed", slog.Uint64("obstacle", uint64(id)))
			}
		}
		if e.placed && !e.vanished && e.spec.Vanish > 0 && elapsed >= e.spec.Vanish {
			if t.lpf.RemoveObstacle(id) {
				e.vanished = true
				t.logger.Debug("obstacle removed", slog.Uint64("obstacle", uint64(id)))
			}
		}
	}
}

// Present returns the obstacles currently placed
func (t *timeline) Present() []config.ObstacleSpec {
	var out []config.ObstacleSpec
	for _, e := range t.entries {
		if e.placed && !e.vanished {
			out = append(out, e.spec)
		}
	}
	return out
}
