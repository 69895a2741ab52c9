package lpf

import (
	"cmp"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/status"
	"github.com/lixenwraith/navcore/vmath"
)

// ManagerConfig configures a Manager; nil fields get defaults
type ManagerConfig struct {
	Tasks  *engine.TaskRegistry
	Status *status.Registry
	Logger *slog.Logger
}

// Manager owns obstacle records and publishes merged areas
// Producers call Push from any goroutine; UpdateFrame and Rebuild run on the main thread.
// Readers call Areas from anywhere and get an immutable snapshot
type Manager struct {
	queue  *UpdateQueue
	tasks  *engine.TaskRegistry
	logger *slog.Logger

	// Main-thread state
	records map[ObstacleID]map[FloorID]vmath.Polygon
	pre     map[FloorID][]PreAggregate
	dirty   map[FloorID]struct{}
	stale   bool // pre-aggregates changed since the last publish
	version uint64

	areas atomic.Pointer[AreaSet]

	// Cached metric pointers
	statUpdates  *atomic.Int64
	statRejected *atomic.Int64
	statRebuilt  *atomic.Int64
	statAreas    *atomic.Int64
	statVersion  *atomic.Int64
	statPending  *atomic.Int64
	statHull     *atomic.Int64
}

// NewManager creates a manager with an empty published area set
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := status.OrNew(cfg.Status)
	m := &Manager{
		queue:        NewUpdateQueue(),
		tasks:        cfg.Tasks,
		logger:       logger.With(slog.String("component", "lpf")),
		records:      make(map[ObstacleID]map[FloorID]vmath.Polygon),
		pre:          make(map[FloorID][]PreAggregate),
		dirty:        make(map[FloorID]struct{}),
		statUpdates:  reg.Ints.Get("lpf.updates"),
		statRejected: reg.Ints.Get("lpf.rejected"),
		statRebuilt:  reg.Ints.Get("lpf.floors_rebuilt"),
		statAreas:    reg.Ints.Get("lpf.areas"),
		statVersion:  reg.Ints.Get("lpf.version"),
		statPending:  reg.Ints.Get("lpf.dirty_floors"),
		statHull:     reg.Ints.Get("lpf.hull_fallbacks"),
	}
	m.areas.Store(&AreaSet{})
	return m
}

// Push queues an obstacle change; false when the queue is full
func (m *Manager) Push(u Update) bool {
	if u.Outline != nil {
		u.Outline = u.Outline.Clone()
	}
	if !m.queue.Push(u) {
		m.statRejected.Add(1)
		m.logger.Debug("update rejected, queue full", slog.Uint64("obstacle", uint64(u.Obstacle)))
		return false
	}
	return true
}

// SetObstacle queues an add, move or resize of obstacle id on floor
func (m *Manager) SetObstacle(id ObstacleID, floor FloorID, outline vmath.Polygon) bool {
	return m.Push(Update{Kind: UpdateSet, Obstacle: id, Floor: floor, Outline: outline})
}

// RemoveObstacle queues the removal of obstacle id from every floor
func (m *Manager) RemoveObstacle(id ObstacleID) bool {
	return m.Push(Update{Kind: UpdateRemove, Obstacle: id})
}

// Areas returns the latest published snapshot, never nil
func (m *Manager) Areas() *AreaSet {
	return m.areas.Load()
}

// Pending reports whether consumed changes are not yet published
func (m *Manager) Pending() bool {
	return len(m.dirty) > 0 || m.stale || m.queue.Len() > 0
}

// UpdateFrame consumes queued changes and rebuilds within the lpf task budget
func (m *Manager) UpdateFrame(engine.Frame) {
	var budget engine.Budget = engine.Unlimited()
	if m.tasks != nil {
		budget = m.tasks.Budget(engine.TaskLpf)
	}
	m.Rebuild(budget)
}

// Rebuild applies queued changes and rebuilds dirty floors until budget runs out
// One floor rebuild and the final cross-floor merge each spend one unit; unfinished work resumes on the next call.
// Returns true when the published set is up to date
func (m *Manager) Rebuild(budget engine.Budget) bool {
	m.apply(m.queue.Consume())

	for len(m.dirty) > 0 {
		if budget.Exhausted() {
			m.statPending.Store(int64(len(m.dirty)))
			return false
		}
		floor := slices.Min(lo.Keys(m.dirty))
		delete(m.dirty, floor)
		m.rebuildFloor(floor)
		budget.Spend(1)
	}
	m.statPending.Store(0)

	if !m.stale {
		return true
	}
	if budget.Exhausted() {
		return false
	}
	m.publish()
	budget.Spend(1)
	return true
}

// Flush rebuilds everything synchronously
func (m *Manager) Flush() {
	m.Rebuild(engine.Unlimited())
}

func (m *Manager) apply(updates []Update) {
	for _, u := range updates {
		m.statUpdates.Add(1)
		switch u.Kind {
		case UpdateSet:
			floors, ok := m.records[u.Obstacle]
			if !ok {
				floors = make(map[FloorID]vmath.Polygon)
				m.records[u.Obstacle] = floors
			}
			floors[u.Floor] = u.Outline
			m.dirty[u.Floor] = struct{}{}
		case UpdateRemove:
			for floor := range m.records[u.Obstacle] {
				m.dirty[floor] = struct{}{}
			}
			delete(m.records, u.Obstacle)
		}
	}
}

func (m *Manager) rebuildFloor(floor FloorID) {
	var recs []ObstacleRecord
	for id, floors := range m.records {
		if outline, ok := floors[floor]; ok {
			recs = append(recs, ObstacleRecord{Obstacle: id, Floor: floor, Outline: outline})
		}
	}
	// Map order is random; keep merges deterministic
	slices.SortFunc(recs, func(a, b ObstacleRecord) int { return cmp.Compare(a.Obstacle, b.Obstacle) })

	pre := ComputePreAggregates(recs)
	if len(pre) == 0 {
		delete(m.pre, floor)
	} else {
		m.pre[floor] = pre
	}
	m.stale = true
	m.statRebuilt.Add(1)
}

func (m *Manager) publish() {
	floors := lo.Keys(m.pre)
	slices.Sort(floors)
	all := lo.FlatMap(floors, func(f FloorID, _ int) []PreAggregate { return m.pre[f] })

	m.version++
	set := &AreaSet{Version: m.version, Areas: MergePreAggregatesIntoAreas(all)}
	m.areas.Store(set)
	m.stale = false

	for _, a := range set.Areas {
		if !a.Approximate {
			continue
		}
		// Hull covers more than the obstacles; edges near the area may be over-blocked
		m.statHull.Add(1)
		m.logger.Debug("area approximated by convex hull",
			slog.Int("area", a.ID),
			slog.Any("obstacles", a.Obstacles),
			slog.Any("floors", a.Floors))
	}

	m.statAreas.Store(int64(len(set.Areas)))
	m.statVersion.Store(int64(m.version))
	m.logger.Debug("areas published", slog.Uint64("version", m.version), slog.Int("areas", len(set.Areas)))
}
