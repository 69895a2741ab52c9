package async

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// ErrDuplicateModule is returned when a module name is registered twice
	ErrDuplicateModule = errors.New("async module already registered")
	// ErrClosed is returned when registering on a closed manager
	ErrClosed = errors.New("async manager closed")
	// ErrBadCapacity is returned for a non-positive module capacity
	ErrBadCapacity = errors.New("async module capacity must be positive")
)

// Well-known module names
const (
	ModuleNearestVertex = "nearest_vertex"
	ModuleDirectWay     = "direct_way"
)

// Request is one deferred computation
// Compute runs on the worker and may read only data copied into the request, plus the graph
// (the worker holds its async read lock). Publish runs on the main thread in the frame after
// Compute finished; it hands the result to the owner, which discards it if stale
type Request interface {
	Compute()
	Publish()
}

// buffer is one of a module's two request arrays
// The main thread fills the front buffer; the worker drains the other one. Each has its own mutex
type buffer struct {
	mu    sync.Mutex
	reqs  []Request
	owner *Module
}

// Module is one named category of offloaded computation with a fixed capacity
type Module struct {
	name     string
	capacity int
	manager  *Manager

	bufs  [2]buffer
	front int // index of the buffer accepting requests, main thread only

	statAdded    *atomic.Int64
	statRejected *atomic.Int64
	statSync     *atomic.Int64
	statDone     *atomic.Int64

	warnedFull atomic.Bool
}

// Name returns the registered name
func (m *Module) Name() string {
	return m.name
}

// Capacity returns the fixed request capacity of one buffer
func (m *Module) Capacity() int {
	return m.capacity
}

// Pending returns the number of requests waiting in the front buffer
func (m *Module) Pending() int {
	b := &m.bufs[m.front]
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.reqs)
}

// AddRequest queues req for the worker
// Returns false when the front buffer is full or the manager is closed; the caller must then
// compute synchronously. Capacity never grows
func (m *Module) AddRequest(req Request) bool {
	if m.manager.closed.Load() {
		m.statRejected.Add(1)
		return false
	}
	b := &m.bufs[m.front]
	b.mu.Lock()
	if len(b.reqs) >= m.capacity {
		b.mu.Unlock()
		m.statRejected.Add(1)
		if !m.warnedFull.Swap(true) {
			m.manager.logger.Warn("async module full, computing synchronously",
				slog.String("module", m.name), slog.Int("capacity", m.capacity))
		} else {
			m.manager.logger.Debug("async module full", slog.String("module", m.name))
		}
		return false
	}
	b.reqs = append(b.reqs, req)
	b.mu.Unlock()
	m.statAdded.Add(1)
	return true
}

// swap hands the filled front buffer to the worker and returns it; nil when nothing is queued
// Main thread only, called while the worker is idle
func (m *Module) swap() *buffer {
	b := &m.bufs[m.front]
	b.mu.Lock()
	empty := len(b.reqs) == 0
	b.mu.Unlock()
	if empty {
		return nil
	}
	m.front ^= 1
	return b
}

// Dispatch queues req on mod, or computes and publishes it in place when mod is nil or full
// Returns true when the request was queued
func Dispatch(mod *Module, req Request) bool {
	if mod != nil && mod.AddRequest(req) {
		return true
	}
	if mod != nil {
		mod.statSync.Add(1)
	}
	req.Compute()
	req.Publish()
	return false
}

// --- Owner tickets ---

// Owner hands out tickets so a requester can recognize results of superseded requests
// Main thread only
type Owner struct {
	gen uint64
}

// Issue invalidates earlier tickets and returns a new one
func (o *Owner) Issue() uint64 {
	o.gen++
	return o.gen
}

// Invalidate makes every issued ticket stale
func (o *Owner) Invalidate() {
	o.gen++
}

// Current reports whether ticket is the latest issued one
func (o *Owner) Current(ticket uint64) bool {
	return ticket != 0 && ticket == o.gen
}
