package status

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// MetricMap holds metrics of type T keyed by dotted name ("async.nearest_vertex.added")
// Lookups are lock-free; components still cache the returned pointer at construction
type MetricMap[T any] struct {
	items sync.Map // string -> *T
	count atomic.Int64
}

// NewMetricMap creates an empty MetricMap
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{}
}

// Get returns the metric for key, creating it on first use
func (m *MetricMap[T]) Get(key string) *T {
	if v, ok := m.items.Load(key); ok {
		return v.(*T)
	}
	v, loaded := m.items.LoadOrStore(key, new(T))
	if !loaded {
		m.count.Add(1)
	}
	return v.(*T)
}

// Has reports whether key was ever requested
func (m *MetricMap[T]) Has(key string) bool {
	_, ok := m.items.Load(key)
	return ok
}

// Keys returns the registered keys, sorted
func (m *MetricMap[T]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.items.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	slices.Sort(keys)
	return keys
}

// KeysWithPrefix returns the sorted keys under a dotted prefix, e.g. "pathfinder"
func (m *MetricMap[T]) KeysWithPrefix(prefix string) []string {
	prefix = strings.TrimSuffix(prefix, ".") + "."
	return slices.DeleteFunc(m.Keys(), func(k string) bool {
		return !strings.HasPrefix(k, prefix)
	})
}

// Range visits every metric in sorted key order
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	for _, k := range m.Keys() {
		fn(k, m.Get(k))
	}
}

// Count returns the number of registered metrics
func (m *MetricMap[T]) Count() int {
	return int(m.count.Load())
}
