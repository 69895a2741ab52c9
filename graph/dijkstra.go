package graph

import "math"

// --- Min-heap for Dijkstra ---

type heapEntry struct {
	ptr  VertexPtr
	dist float64
}

type minHeap []heapEntry

func (h *minHeap) push(e heapEntry) {
	*h = append(*h, e)
	// Sift up
	i := len(*h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if (*h)[parent].dist <= (*h)[i].dist {
			break
		}
		(*h)[parent], (*h)[i] = (*h)[i], (*h)[parent]
		i = parent
	}
}

func (h *minHeap) pop() heapEntry {
	old := *h
	n := len(old)
	e := old[0]
	old[0] = old[n-1]
	*h = old[:n-1]

	// Sift down
	i := 0
	for {
		left := 2*i + 1
		if left >= len(*h) {
			break
		}
		smallest := left
		if right := left + 1; right < len(*h) && (*h)[right].dist < (*h)[left].dist {
			smallest = right
		}
		if (*h)[i].dist <= (*h)[smallest].dist {
			break
		}
		(*h)[i], (*h)[smallest] = (*h)[smallest], (*h)[i]
		i = smallest
	}
	return e
}

// EdgeCostFunc returns the traversal cost of an edge, or +Inf when impassable
type EdgeCostFunc func(from VertexPtr, e *Edge) float64

// DefaultEdgeCost is length times multiplier
func DefaultEdgeCost(_ VertexPtr, e *Edge) float64 {
	return float64(e.Cost())
}

// DijkstraCosts runs single-source Dijkstra over resident vertices
// Reference shortest-path costs for validating searches; unreachable vertices are absent
func DijkstraCosts(g *Graph, from VertexPtr, cost EdgeCostFunc) map[VertexKey]float64 {
	if cost == nil {
		cost = DefaultEdgeCost
	}
	dist := make(map[VertexKey]float64)
	startKey, ok := g.Key(from)
	if !ok {
		return dist
	}
	dist[startKey] = 0

	h := make(minHeap, 0, 64)
	h.push(heapEntry{ptr: from, dist: 0})

	for len(h) > 0 {
		e := h.pop()
		k, _ := g.Key(e.ptr)
		if e.dist > dist[k] {
			continue
		}
		edges := g.Edges(e.ptr)
		for i := range edges {
			c := cost(e.ptr, &edges[i])
			if math.IsInf(c, 1) || c < 0 {
				continue
			}
			to, ok := g.EdgeTarget(&edges[i])
			if !ok {
				continue
			}
			tk, _ := g.Key(to)
			nd := e.dist + c
			if old, seen := dist[tk]; !seen || nd < old {
				dist[tk] = nd
				h.push(heapEntry{ptr: to, dist: nd})
			}
		}
	}
	return dist
}
