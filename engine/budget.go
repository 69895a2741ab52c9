package engine

import (
	"math"
	"time"
)

// Budget bounds one slice of an aperiodic task
// Work loops call Exhausted before each unit and Spend after it; when Exhausted
// reports true the loop suspends and resumes on a later call
type Budget interface {
	// Exhausted reports whether no further unit may start in this slice
	Exhausted() bool
	// Spend records units of completed work
	Spend(units int)
}

// unlimited never runs out
type unlimited struct{}

func (unlimited) Exhausted() bool { return false }
func (unlimited) Spend(int)       {}

// Unlimited returns a budget that never runs out
// Used for synchronous fallbacks and for running a search to completion
func Unlimited() Budget {
	return unlimited{}
}

// UnitBudget allows a fixed number of work units
// Deterministic, independent of the clock
type UnitBudget struct {
	Remaining int
	Used      int
}

// Units returns a budget allowing n units of work
func Units(n int) *UnitBudget {
	return &UnitBudget{Remaining: n}
}

// Exhausted implements Budget
func (b *UnitBudget) Exhausted() bool {
	return b.Remaining <= 0
}

// Spend implements Budget
func (b *UnitBudget) Spend(units int) {
	b.Remaining -= units
	b.Used += units
}

// TaskBudget draws from the per-frame pool of a registered Task
// Several budgets of the same task within one frame share that pool
type TaskBudget struct {
	task       *Task
	clock      Clock
	measured   bool
	checkpoint time.Time
	units      int
}

// Exhausted implements Budget
func (b *TaskBudget) Exhausted() bool {
	return b.task.remaining.Load() <= 0
}

// Spend implements Budget
// Estimated mode charges the recorded per-unit estimate; measured mode charges elapsed time
func (b *TaskBudget) Spend(units int) {
	if units <= 0 {
		return
	}
	b.units += units
	if !b.measured {
		cost := b.task.estimate.Load() * int64(units)
		b.task.remaining.Add(-cost)
		return
	}
	now := b.clock.Now()
	elapsed := now.Sub(b.checkpoint)
	b.checkpoint = now
	b.task.remaining.Add(-int64(elapsed))
	b.task.measuredNs.Add(int64(elapsed))
	b.task.measuredUnits.Add(int64(units))
}

// Units returns the number of units spent through this budget
func (b *TaskBudget) Units() int {
	return b.units
}

// Remaining returns the task pool left in the current frame
func (b *TaskBudget) Remaining() time.Duration {
	r := b.task.remaining.Load()
	if r < 0 {
		return 0
	}
	if r > math.MaxInt64/2 {
		return time.Duration(math.MaxInt64 / 2)
	}
	return time.Duration(r)
}
