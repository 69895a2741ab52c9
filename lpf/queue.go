package lpf

import (
	"sync/atomic"

	"github.com/lixenwraith/navcore/parameter"
)

// UpdateQueue is a bounded lock-free MPSC ring buffer of obstacle updates
// Thread-Safety:
//   - Push: Lock-free CAS, multiple producers OK
//   - Consume: Single consumer (Manager on the main thread)
//   - Published flags prevent reading partial writes
//
// Overflow: Push rejects the update when full; nothing is overwritten
type UpdateQueue struct {
	updates   [parameter.LpfUpdateQueueSize]Update
	published [parameter.LpfUpdateQueueSize]atomic.Bool // True = slot fully written
	head      atomic.Uint64                             // Read index
	tail      atomic.Uint64                             // Write index
}

func NewUpdateQueue() *UpdateQueue {
	return &UpdateQueue{}
}

// Push adds an update using lock-free CAS with published flags pattern
// Returns false when the ring holds LpfUpdateQueueSize unconsumed updates
func (q *UpdateQueue) Push(u Update) bool {
	for {
		currentTail := q.tail.Load()
		if currentTail-q.head.Load() >= parameter.LpfUpdateQueueSize {
			return false
		}
		if q.tail.CompareAndSwap(currentTail, currentTail+1) {
			idx := currentTail & parameter.LpfUpdateQueueMask
			q.updates[idx] = u
			q.published[idx].Store(true) // MUST be after write
			return true
		}
	}
}

// Consume returns all fully written updates in FIFO order and advances head
// Stops at the first slot whose producer has not finished writing
func (q *UpdateQueue) Consume() []Update {
	currentHead := q.head.Load()
	currentTail := q.tail.Load()
	if currentTail == currentHead {
		return nil
	}

	available := currentTail - currentHead
	result := make([]Update, 0, available)
	for i := uint64(0); i < available; i++ {
		idx := (currentHead + i) & parameter.LpfUpdateQueueMask
		if !q.published[idx].Load() {
			break // Writer incomplete
		}
		result = append(result, q.updates[idx])
		q.updates[idx] = Update{}
		q.published[idx].Store(false)
	}

	q.head.Store(currentHead + uint64(len(result)))
	if len(result) == 0 {
		return nil
	}
	return result
}

// Len returns approximate pending update count
func (q *UpdateQueue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	return int(tail - head)
}
