package engine

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/navcore/core"
	"github.com/lixenwraith/navcore/status"
)

// Frame is the per-frame context handed to updaters and agents
type Frame struct {
	Number uint64
	Now    time.Time
	Delta  time.Duration
}

// AsyncProcessor brackets the per-frame handoff with a secondary worker
type AsyncProcessor interface {
	BeginAsyncProcessing()
	EndAsyncProcessing()
}

// FrameUpdater is a main-thread world system updated once per frame before agents (LPF rebuild, graph streaming)
type FrameUpdater interface {
	UpdateFrame(f Frame)
}

// Agent is one bot-driving unit, updated once per frame
type Agent interface {
	FrameUpdater
	ID() string
}

// FrameSchedulerConfig configures a FrameScheduler
type FrameSchedulerConfig struct {
	Clock  Clock
	Tasks  *TaskRegistry
	Async  AsyncProcessor
	Status *status.Registry
	Logger *slog.Logger
	// Parallelism bounds concurrent agent updates; 0 or 1 updates agents sequentially
	Parallelism int
}

// FrameScheduler runs the simulation frame loop:
// task budgets, async results, world updaters, agents, async handoff
type FrameScheduler struct {
	clock       Clock
	tasks       *TaskRegistry
	async       AsyncProcessor
	logger      *slog.Logger
	parallelism int

	mu       sync.Mutex
	updaters []FrameUpdater
	agents   []Agent
	offset   int

	frameCount atomic.Uint64
	lastFrame  time.Time

	// Control
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	// Cached metric pointers
	statFrames     *atomic.Int64
	statAgents     *atomic.Int64
	statPanics     *atomic.Int64
	statFrameNanos *atomic.Int64
	statFramePeak  *status.AtomicFloat
	statLooping    *atomic.Bool
}

// NewFrameScheduler creates a scheduler; nil fields in cfg get defaults
func NewFrameScheduler(cfg FrameSchedulerConfig) *FrameScheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := status.OrNew(cfg.Status)
	clock := OrRealTime(cfg.Clock)

	return &FrameScheduler{
		clock:          clock,
		tasks:          cfg.Tasks,
		async:          cfg.Async,
		logger:         logger.With(slog.String("component", "scheduler")),
		parallelism:    cfg.Parallelism,
		lastFrame:      clock.Now(),
		stopChan:       make(chan struct{}),
		statFrames:     reg.Ints.Get("engine.frames"),
		statAgents:     reg.Ints.Get("engine.agents"),
		statPanics:     reg.Ints.Get("engine.agent_panics"),
		statFrameNanos: reg.Ints.Get("engine.frame_ns"),
		statFramePeak:  reg.Floats.Get("engine.frame_ms_peak"),
		statLooping:    reg.Bools.Get("engine.looping"),
	}
}

// AddUpdater registers a world system, updated in registration order
func (fs *FrameScheduler) AddUpdater(u FrameUpdater) {
	fs.mu.Lock()
	fs.updaters = append(fs.updaters, u)
	fs.mu.Unlock()
}

// AddAgent registers an agent
func (fs *FrameScheduler) AddAgent(a Agent) {
	fs.mu.Lock()
	fs.agents = append(fs.agents, a)
	fs.statAgents.Store(int64(len(fs.agents)))
	fs.mu.Unlock()
}

// RemoveAgent unregisters an agent by id, returns false if absent
func (fs *FrameScheduler) RemoveAgent(id string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i, a := range fs.agents {
		if a.ID() == id {
			fs.agents = append(fs.agents[:i], fs.agents[i+1:]...)
			fs.statAgents.Store(int64(len(fs.agents)))
			return true
		}
	}
	return false
}

// FrameCount returns the number of frames stepped
func (fs *FrameScheduler) FrameCount() uint64 {
	return fs.frameCount.Load()
}

// Step runs one frame synchronously on the calling goroutine
func (fs *FrameScheduler) Step() Frame {
	now := fs.clock.Now()
	f := Frame{
		Number: fs.frameCount.Add(1),
		Now:    now,
		Delta:  now.Sub(fs.lastFrame),
	}
	fs.lastFrame = now

	fs.mu.Lock()
	updaters := append([]FrameUpdater(nil), fs.updaters...)
	agents := fs.rotatedAgents()
	fs.mu.Unlock()

	if fs.tasks != nil {
		fs.tasks.BeginFrame()
	}
	if fs.async != nil {
		fs.async.BeginAsyncProcessing()
	}

	for _, u := range updaters {
		core.Isolate(fs.logger, "updater", func() { u.UpdateFrame(f) })
	}

	fs.updateAgents(f, agents)

	if fs.async != nil {
		fs.async.EndAsyncProcessing()
	}

	fs.statFrames.Add(1)
	elapsed := fs.clock.Now().Sub(now)
	fs.statFrameNanos.Store(int64(elapsed))
	fs.statFramePeak.StoreMax(float64(elapsed) / float64(time.Millisecond))
	return f
}

// rotatedAgents returns agents starting at a moving offset so no agent is always last in the shared budget
// Caller holds fs.mu
func (fs *FrameScheduler) rotatedAgents() []Agent {
	n := len(fs.agents)
	out := make([]Agent, 0, n)
	if n == 0 {
		return out
	}
	start := fs.offset % n
	out = append(out, fs.agents[start:]...)
	out = append(out, fs.agents[:start]...)
	fs.offset = (start + 1) % n
	return out
}

// updateAgents isolates each agent so a panicking bot is logged and skipped
func (fs *FrameScheduler) updateAgents(f Frame, agents []Agent) {
	run := func(a Agent) {
		if core.Isolate(fs.logger.With(slog.String("bot", a.ID())), "agent", func() { a.UpdateFrame(f) }) {
			fs.statPanics.Add(1)
		}
	}

	if fs.parallelism <= 1 {
		for _, a := range agents {
			run(a)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(fs.parallelism)
	for _, a := range agents {
		g.Go(func() error {
			run(a)
			return nil
		})
	}
	_ = g.Wait()
}

// Start runs the frame loop on its own goroutine
func (fs *FrameScheduler) Start(interval time.Duration) {
	if fs.running.CompareAndSwap(false, true) {
		fs.wg.Add(1)
		core.Go(func() {
			defer fs.wg.Done()
			fs.loop(context.Background(), interval)
		})
	}
}

// Stop halts a loop started with Start
func (fs *FrameScheduler) Stop() {
	fs.stopOnce.Do(func() {
		if fs.running.CompareAndSwap(true, false) {
			close(fs.stopChan)
			fs.wg.Wait()
		}
	})
}

// Run steps frames on the calling goroutine until ctx is done
func (fs *FrameScheduler) Run(ctx context.Context, interval time.Duration) error {
	fs.loop(ctx, interval)
	return ctx.Err()
}

func (fs *FrameScheduler) loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	fs.statLooping.Store(true)
	defer fs.statLooping.Store(false)

	fs.logger.Debug("frame loop started", slog.String("interval", interval.String()))
	for {
		select {
		case <-ctx.Done():
			return
		case <-fs.stopChan:
			return
		case <-ticker.C:
			f := fs.Step()
			if f.Delta > interval*2 {
				fs.logger.Debug("frame overrun",
					slog.String("frame", strconv.FormatUint(f.Number, 10)),
					slog.Duration("delta", f.Delta))
			}
		}
	}
}
