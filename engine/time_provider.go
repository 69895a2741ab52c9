package engine

import "time"

// Clock is the time source of the simulation
// Implementations must be monotonic
type Clock interface {
	Now() time.Time
}

// TimeProvider provides the real system time with monotonic clock readings
type TimeProvider struct{}

// NewTimeProvider creates a new monotonic time provider
func NewTimeProvider() *TimeProvider {
	return &TimeProvider{}
}

// Now returns the current time with monotonic clock reading
func (p *TimeProvider) Now() time.Time {
	return time.Now()
}

// OrRealTime returns c, or the system clock when c is nil
func OrRealTime(c Clock) Clock {
	if c != nil {
		return c
	}
	return NewTimeProvider()
}
