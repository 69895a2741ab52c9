package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/navcore/core"
	"github.com/lixenwraith/navcore/status"
)

// GraphLocker is the read lock the worker holds while computing
// *graph.Graph satisfies it
type GraphLocker interface {
	RLockForAsync()
	RUnlockForAsync()
}

// Config configures a Manager; nil fields get defaults
type Config struct {
	Graph  GraphLocker
	Status *status.Registry
	Logger *slog.Logger
}

// batch is the set of buffers handed to the worker in one frame
type batch struct {
	bufs []*buffer
	done chan struct{}
}

// Manager runs one worker goroutine serving named modules
// Main-thread calls (Register, Module, BeginAsyncProcessing, EndAsyncProcessing, Flush) must not
// run concurrently with each other; AddRequest may be called from agents updated in parallel
type Manager struct {
	graph  GraphLocker
	logger *slog.Logger
	reg    *status.Registry

	mu      sync.RWMutex
	modules map[string]*Module
	order   []*Module

	jobs     chan *batch
	inFlight *batch // main thread only

	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup

	warned sync.Map // missing module names already reported

	statBatches   *atomic.Int64
	statComputed  *atomic.Int64
	statPublished *atomic.Int64
	statPanics    *atomic.Int64
	statMissing   *atomic.Int64
	statBusy      *atomic.Int64
}

// NewManager creates a manager and starts its worker
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := status.OrNew(cfg.Status)
	m := &Manager{
		graph:         cfg.Graph,
		logger:        logger.With(slog.String("component", "async")),
		reg:           reg,
		modules:       make(map[string]*Module),
		jobs:          make(chan *batch, 1),
		statBatches:   reg.Ints.Get("async.batches"),
		statComputed:  reg.Ints.Get("async.computed"),
		statPublished: reg.Ints.Get("async.published"),
		statPanics:    reg.Ints.Get("async.panics"),
		statMissing:   reg.Ints.Get("async.missing_module"),
		statBusy:      reg.Ints.Get("async.worker_busy"),
	}
	m.wg.Add(1)
	core.Go(m.worker)
	return m
}

// Register creates a module with a fixed per-buffer capacity
func (m *Manager) Register(name string, capacity int) (*Module, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("register %q (capacity %d): %w", name, capacity, ErrBadCapacity)
	}
	if m.closed.Load() {
		return nil, fmt.Errorf("register %q: %w", name, ErrClosed)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.modules[name]; ok {
		return nil, fmt.Errorf("register %q: %w", name, ErrDuplicateModule)
	}
	mod := &Module{
		name:         name,
		capacity:     capacity,
		manager:      m,
		statAdded:    m.reg.Ints.Get("async." + name + ".added"),
		statRejected: m.reg.Ints.Get("async." + name + ".rejected"),
		statSync:     m.reg.Ints.Get("async." + name + ".sync"),
		statDone:     m.reg.Ints.Get("async." + name + ".published"),
	}
	for i := range mod.bufs {
		mod.bufs[i].reqs = make([]Request, 0, capacity)
		mod.bufs[i].owner = mod
	}
	m.modules[name] = mod
	m.order = append(m.order, mod)
	m.logger.Debug("module registered", slog.String("module", name), slog.Int("capacity", capacity))
	return mod, nil
}

// Module returns the named module, nil when not registered
// A missing module is reported once; owners then compute synchronously
func (m *Manager) Module(name string) *Module {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	mod := m.modules[name]
	m.mu.RUnlock()
	if mod == nil {
		m.statMissing.Add(1)
		if _, seen := m.warned.LoadOrStore(name, true); !seen {
			m.logger.Warn("async module not registered, computing synchronously", slog.String("module", name))
		}
	}
	return mod
}

// BeginAsyncProcessing publishes results of the batch the worker finished
// Never waits: a batch still computing is published on a later frame
func (m *Manager) BeginAsyncProcessing() {
	b := m.inFlight
	if b == nil {
		return
	}
	select {
	case <-b.done:
	default:
		m.statBusy.Add(1)
		return
	}
	m.publish(b)
	m.inFlight = nil
}

// EndAsyncProcessing hands every module's filled buffer to the worker when it is idle
// Never waits for a computation
func (m *Manager) EndAsyncProcessing() {
	if m.inFlight != nil || m.closed.Load() {
		return
	}
	m.mu.RLock()
	var bufs []*buffer
	for _, mod := range m.order {
		if b := mod.swap(); b != nil {
			bufs = append(bufs, b)
		}
	}
	m.mu.RUnlock()
	if len(bufs) == 0 {
		return
	}
	b := &batch{bufs: bufs, done: make(chan struct{})}
	m.inFlight = b
	m.statBatches.Add(1)
	// Capacity 1 and at most one batch in flight: never blocks
	m.jobs <- b
}

// Flush waits for queued work to compute and publishes it
// Used at shutdown, by tests and by deterministic replays after each frame
func (m *Manager) Flush(ctx context.Context) error {
	for {
		if b := m.inFlight; b != nil {
			select {
			case <-b.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			m.BeginAsyncProcessing()
		}
		m.EndAsyncProcessing()
		if m.inFlight == nil {
			return nil
		}
	}
}

// Close stops the worker after its current batch; main thread only
// Results of that batch are dropped; queued requests are never computed
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		close(m.jobs)
		m.wg.Wait()
	})
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for b := range m.jobs {
		m.compute(b)
		close(b.done)
	}
}

func (m *Manager) compute(b *batch) {
	if m.graph != nil {
		m.graph.RLockForAsync()
		defer m.graph.RUnlockForAsync()
	}
	for _, buf := range b.bufs {
		buf.mu.Lock()
		for _, req := range buf.reqs {
			if core.Isolate(m.logger, "async compute", req.Compute) {
				m.statPanics.Add(1)
			}
			m.statComputed.Add(1)
		}
		buf.mu.Unlock()
	}
}

// publish runs on the main thread
func (m *Manager) publish(b *batch) {
	for _, buf := range b.bufs {
		buf.mu.Lock()
		for i, req := range buf.reqs {
			if core.Isolate(m.logger, "async publish", req.Publish) {
				m.statPanics.Add(1)
			}
			buf.reqs[i] = nil
		}
		m.statPublished.Add(int64(len(buf.reqs)))
		buf.owner.statDone.Add(int64(len(buf.reqs)))
		buf.reqs = buf.reqs[:0]
		buf.mu.Unlock()
	}
}
