package engine

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lixenwraith/navcore/status"
)

func TestUnitBudget(t *testing.T) {
	b := Units(3)
	n := 0
	for !b.Exhausted() {
		b.Spend(1)
		n++
	}
	if n != 3 {
		t.Errorf("Expected 3 units, got %d", n)
	}
	if b.Used != 3 {
		t.Errorf("Expected Used=3, got %d", b.Used)
	}

	if Units(0).Exhausted() != true {
		t.Errorf("Zero budget should be exhausted")
	}
	u := Unlimited()
	u.Spend(1 << 30)
	if u.Exhausted() {
		t.Errorf("Unlimited budget should never be exhausted")
	}
}

func TestTaskBudgetEstimated(t *testing.T) {
	clock := NewMockTimeProvider(time.Unix(0, 0))
	reg := status.NewRegistry()
	tasks := NewTaskRegistry(ModeEstimated, clock, reg, nil)
	tasks.Register(TaskAstar, 10*time.Microsecond, 2*time.Microsecond)
	tasks.BeginFrame()

	// Two budgets in one frame share the pool
	b1 := tasks.Budget(TaskAstar)
	b1.Spend(3)
	b2 := tasks.Budget(TaskAstar)
	if b2.Exhausted() {
		t.Fatalf("Pool should have 4us left")
	}
	b2.Spend(2)
	if !b1.Exhausted() || !b2.Exhausted() {
		t.Errorf("Pool should be exhausted after 5 units of 2us")
	}

	tasks.BeginFrame()
	if b1.Exhausted() {
		t.Errorf("BeginFrame should refill the pool")
	}
	if got := reg.Ints.Get("tasks.astar.exhausted").Load(); got != 1 {
		t.Errorf("Expected one exhausted frame recorded, got %d", got)
	}
}

func TestTaskBudgetMeasured(t *testing.T) {
	clock := NewMockTimeProvider(time.Unix(0, 0))
	tasks := NewTaskRegistry(ModeMeasured, clock, nil, nil)
	task := tasks.Register(TaskLpf, time.Millisecond, 0)
	tasks.BeginFrame()

	b := tasks.Budget(TaskLpf)
	clock.Advance(400 * time.Microsecond)
	b.Spend(2)
	if b.Exhausted() {
		t.Fatalf("600us should remain")
	}
	clock.Advance(600 * time.Microsecond)
	b.Spend(1)
	if !b.Exhausted() {
		t.Errorf("Measured budget should be exhausted after 1ms")
	}
	if got := task.MeasuredUnitCost(); got != time.Millisecond/3 {
		t.Errorf("Expected average unit cost %v, got %v", time.Millisecond/3, got)
	}
}

func TestUnknownTaskIsUnlimited(t *testing.T) {
	tasks := NewTaskRegistry(ModeEstimated, nil, nil, nil)
	b := tasks.Budget("missing")
	b.Spend(1000)
	if b.Exhausted() {
		t.Errorf("Unregistered task should get an unlimited budget")
	}

	var nilTasks *TaskRegistry
	if nilTasks.Budget(TaskAstar).Exhausted() {
		t.Errorf("Nil registry should hand out unlimited budgets")
	}
}

func TestCostTableRoundTrip(t *testing.T) {
	clock := NewMockTimeProvider(time.Unix(0, 0))
	measured := NewTaskRegistry(ModeMeasured, clock, nil, nil)
	measured.Register(TaskAstar, time.Millisecond, time.Microsecond)
	measured.Register(TaskLpf, time.Millisecond, 50*time.Microsecond)
	measured.BeginFrame()

	b := measured.Budget(TaskAstar)
	clock.Advance(30 * time.Microsecond)
	b.Spend(10)

	ct := measured.CostTable("test")
	if ct.Costs[TaskAstar] != 3*time.Microsecond {
		t.Errorf("Expected measured astar cost 3us, got %v", ct.Costs[TaskAstar])
	}
	if ct.Costs[TaskLpf] != 50*time.Microsecond {
		t.Errorf("Unmeasured task should keep its estimate, got %v", ct.Costs[TaskLpf])
	}

	path := filepath.Join(t.TempDir(), "costs.msgpack")
	if err := SaveCostTable(path, ct); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadCostTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Platform != "test" || len(loaded.Costs) != 2 {
		t.Fatalf("Loaded table mismatch: %+v", loaded)
	}

	replay := NewTaskRegistry(ModeEstimated, nil, nil, nil)
	replay.Register(TaskAstar, 30*time.Microsecond, time.Microsecond)
	updated := replay.ApplyCostTable(loaded)
	if len(updated) != 1 || updated[0] != TaskAstar {
		t.Errorf("Expected only astar updated, got %v", updated)
	}
	replay.BeginFrame()
	rb := replay.Budget(TaskAstar)
	n := 0
	for !rb.Exhausted() {
		rb.Spend(1)
		n++
	}
	if n != 10 {
		t.Errorf("Replayed estimate should allow 10 units in 30us, got %d", n)
	}
}

func TestCostTableVersionRejected(t *testing.T) {
	var buf bytes.Buffer
	bad := CostTable{Version: CostTableVersion + 1, Costs: map[string]time.Duration{}}
	if err := msgpack.NewEncoder(&buf).Encode(bad); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeCostTable(&buf); !errors.Is(err, ErrCostTableVersion) {
		t.Errorf("Expected ErrCostTableVersion, got %v", err)
	}
}
