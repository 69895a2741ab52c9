package engine

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/navcore/status"
)

// Well-known aperiodic task names
const (
	TaskAstar = "astar"
	TaskLpf   = "lpf"
	TaskAsync = "async"
)

// TaskMode selects how aperiodic task budgets are charged
type TaskMode int

const (
	// ModeMeasured charges wall-clock time between Spend calls
	ModeMeasured TaskMode = iota
	// ModeEstimated charges a per-unit cost estimate, deterministic across platforms
	ModeEstimated
)

func (m TaskMode) String() string {
	switch m {
	case ModeMeasured:
		return "measured"
	case ModeEstimated:
		return "estimated"
	default:
		return "unknown"
	}
}

// Task is a named aperiodic task with a per-frame time allowance
type Task struct {
	Name      string
	Allowance time.Duration

	estimate      atomic.Int64 // ns per unit in estimated mode
	remaining     atomic.Int64 // ns left in the current frame
	measuredNs    atomic.Int64
	measuredUnits atomic.Int64

	statExhausted *atomic.Int64
}

// Estimate returns the per-unit cost estimate
func (t *Task) Estimate() time.Duration {
	return time.Duration(t.estimate.Load())
}

// MeasuredUnitCost returns the average measured cost of one unit, 0 if nothing was measured
func (t *Task) MeasuredUnitCost() time.Duration {
	units := t.measuredUnits.Load()
	if units == 0 {
		return 0
	}
	return time.Duration(t.measuredNs.Load() / units)
}

// TaskRegistry holds the named aperiodic task budgets of one simulation
type TaskRegistry struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	mode   TaskMode
	clock  Clock
	status *status.Registry
	logger *slog.Logger

	warned sync.Map // unknown task names already reported

	statFrames *atomic.Int64
}

// NewTaskRegistry creates an empty registry
func NewTaskRegistry(mode TaskMode, clock Clock, reg *status.Registry, logger *slog.Logger) *TaskRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	reg = status.OrNew(reg)
	return &TaskRegistry{
		tasks:      make(map[string]*Task),
		mode:       mode,
		clock:      OrRealTime(clock),
		status:     reg,
		logger:     logger.With(slog.String("component", "tasks")),
		statFrames: reg.Ints.Get("tasks.frames"),
	}
}

// Mode returns the charging mode
func (r *TaskRegistry) Mode() TaskMode {
	return r.mode
}

// Register adds or replaces a task
// estimate is the per-unit cost charged in estimated mode
func (r *TaskRegistry) Register(name string, allowance, estimate time.Duration) *Task {
	t := &Task{
		Name:          name,
		Allowance:     allowance,
		statExhausted: r.status.Ints.Get("tasks." + name + ".exhausted"),
	}
	t.estimate.Store(int64(estimate))
	t.remaining.Store(int64(allowance))

	r.mu.Lock()
	r.tasks[name] = t
	r.mu.Unlock()
	return t
}

// Task returns the registered task or nil
func (r *TaskRegistry) Task(name string) *Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks[name]
}

// BeginFrame refills every task pool
func (r *TaskRegistry) BeginFrame() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tasks {
		if t.remaining.Load() <= 0 {
			t.statExhausted.Add(1)
		}
		t.remaining.Store(int64(t.Allowance))
	}
	r.statFrames.Add(1)
}

// Budget returns a budget drawing from the named task's pool
// Unknown tasks get an unlimited budget and a one-time warning
func (r *TaskRegistry) Budget(name string) Budget {
	if r == nil {
		return Unlimited()
	}
	t := r.Task(name)
	if t == nil {
		if _, seen := r.warned.LoadOrStore(name, true); !seen {
			r.logger.Warn("budget requested for unregistered task, running unbounded", slog.String("task", name))
		}
		return Unlimited()
	}
	return &TaskBudget{
		task:       t,
		clock:      r.clock,
		measured:   r.mode == ModeMeasured,
		checkpoint: r.clock.Now(),
	}
}

// CostTable snapshots measured per-unit costs, falling back to the current estimate
func (r *TaskRegistry) CostTable(platform string) CostTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ct := CostTable{
		Version:  CostTableVersion,
		Platform: platform,
		Costs:    make(map[string]time.Duration, len(r.tasks)),
	}
	for name, t := range r.tasks {
		cost := t.MeasuredUnitCost()
		if cost == 0 {
			cost = t.Estimate()
		}
		ct.Costs[name] = cost
	}
	return ct
}

// ApplyCostTable replaces estimates of registered tasks with recorded costs
// Returns the names that were updated, sorted
func (r *TaskRegistry) ApplyCostTable(ct CostTable) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	updated := make([]string, 0, len(ct.Costs))
	for name, cost := range ct.Costs {
		t, ok := r.tasks[name]
		if !ok || cost <= 0 {
			continue
		}
		t.estimate.Store(int64(cost))
		updated = append(updated, name)
	}
	sort.Strings(updated)
	return updated
}
