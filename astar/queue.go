package astar

import "github.com/lixenwraith/navcore/graph"

// --- Open set ---

type openEntry struct {
	ptr graph.VertexPtr
	g   float32
	f   float32
	seq uint64 // insertion order, later wins ties
}

// openQueue is a binary min-heap on f with LIFO tie-break
// Improved vertices are pushed again; stale entries are skipped on pop
type openQueue []openEntry

func (q openQueue) less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq > q[j].seq
}

func (q *openQueue) push(e openEntry) {
	*q = append(*q, e)
	h := *q
	// Sift up
	i := len(h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h[parent], h[i] = h[i], h[parent]
		i = parent
	}
}

func (q *openQueue) pop() openEntry {
	h := *q
	n := len(h)
	e := h[0]
	h[0] = h[n-1]
	h = h[:n-1]
	*q = h

	// Sift down
	i := 0
	for {
		left := 2*i + 1
		if left >= len(h) {
			break
		}
		smallest := left
		if right := left + 1; right < len(h) && h.less(right, left) {
			smallest = right
		}
		if !h.less(smallest, i) {
			break
		}
		h[i], h[smallest] = h[smallest], h[i]
		i = smallest
	}
	return e
}

func (q *openQueue) reset() {
	*q = (*q)[:0]
}
