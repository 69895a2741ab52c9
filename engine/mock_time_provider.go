package engine

import (
	"sync/atomic"
	"time"
)

// MockTimeProvider is a simulated clock for tests and deterministic replays
// Time only moves when Advance or SetTime is called; safe for concurrent readers
type MockTimeProvider struct {
	start  time.Time
	offset atomic.Int64
}

// NewMockTimeProvider creates a simulated clock reading start
func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{start: start}
}

// Now returns the simulated time
func (m *MockTimeProvider) Now() time.Time {
	return m.start.Add(time.Duration(m.offset.Load()))
}

// Elapsed returns the simulated time passed since creation
func (m *MockTimeProvider) Elapsed() time.Duration {
	return time.Duration(m.offset.Load())
}

// SetTime jumps to t; times before the start clamp to the start so the clock never runs backwards past it
func (m *MockTimeProvider) SetTime(t time.Time) {
	d := t.Sub(m.start)
	if d < 0 {
		d = 0
	}
	m.offset.Store(int64(d))
}

// Advance moves the clock forward by d; negative durations are ignored
func (m *MockTimeProvider) Advance(d time.Duration) {
	if d > 0 {
		m.offset.Add(int64(d))
	}
}
