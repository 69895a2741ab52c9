package lpf

import (
	"slices"

	"github.com/samber/lo"

	"github.com/lixenwraith/navcore/vmath"
)

// unionFind groups indices connected by overlap
type unionFind []int

func newUnionFind(n int) unionFind {
	uf := make(unionFind, n)
	for i := range uf {
		uf[i] = i
	}
	return uf
}

func (uf unionFind) find(i int) int {
	for uf[i] != i {
		uf[i] = uf[uf[i]]
		i = uf[i]
	}
	return i
}

func (uf unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf[max(ra, rb)] = min(ra, rb)
	}
}

// overlapGroups returns groups of outline indices connected by pairwise overlap, each in
// breadth-first order from its lowest index so every member overlaps an earlier one
func overlapGroups(outlines []vmath.Polygon) [][]int {
	n := len(outlines)
	uf := newUnionFind(n)
	adj := make([][]int, n)
	bounds := lo.Map(outlines, func(p vmath.Polygon, _ int) vmath.AABB2 { return vmath.Bounds(p) })
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !bounds[i].Overlaps(bounds[j]) || !Overlap(outlines[i], outlines[j]) {
				continue
			}
			uf.union(i, j)
			adj[i] = append(adj[i], j)
			adj[j] = append(adj[j], i)
		}
	}

	byRoot := lo.GroupBy(lo.Range(n), func(i int) int { return uf.find(i) })
	roots := lo.Keys(byRoot)
	slices.Sort(roots)

	groups := make([][]int, 0, len(roots))
	seen := make([]bool, n)
	for _, r := range roots {
		order := []int{r}
		seen[r] = true
		for k := 0; k < len(order); k++ {
			for _, nb := range adj[order[k]] {
				if !seen[nb] {
					seen[nb] = true
					order = append(order, nb)
				}
			}
		}
		groups = append(groups, order)
	}
	return groups
}

// foldMerge unions outlines given in overlap order into one loop
// When the union does not trace as a single loop (members touching at a point, numerical
// trouble) the convex hull of all members is used and approx is set
func foldMerge(outlines []vmath.Polygon) (outline vmath.Polygon, approx bool) {
	acc := outlines[0]
	for _, o := range outlines[1:] {
		merged, hull := mergeOutlines(acc, o)
		approx = approx || hull
		if len(merged) == 1 {
			acc = merged[0]
			continue
		}
		return vmath.ConvexHull(lo.Flatten(outlines)), true
	}
	return acc, approx
}

// ComputePreAggregates unions overlapping outlines of each floor
// Degenerate outlines are ignored; output is ordered by floor, then by first member
func ComputePreAggregates(records []ObstacleRecord) []PreAggregate {
	valid := lo.FilterMap(records, func(r ObstacleRecord, _ int) (ObstacleRecord, bool) {
		out, ok := NormalizeOutline(r.Outline)
		r.Outline = out
		return r, ok
	})
	byFloor := lo.GroupBy(valid, func(r ObstacleRecord) FloorID { return r.Floor })
	floors := lo.Keys(byFloor)
	slices.Sort(floors)

	var out []PreAggregate
	for _, f := range floors {
		out = append(out, floorPreAggregates(f, byFloor[f])...)
	}
	return out
}

func floorPreAggregates(floor FloorID, recs []ObstacleRecord) []PreAggregate {
	outlines := lo.Map(recs, func(r ObstacleRecord, _ int) vmath.Polygon { return r.Outline })
	groups := overlapGroups(outlines)
	out := make([]PreAggregate, 0, len(groups))
	for _, g := range groups {
		members := lo.Map(g, func(i int, _ int) vmath.Polygon { return outlines[i] })
		outline, approx := foldMerge(members)
		ids := lo.Uniq(lo.Map(g, func(i int, _ int) ObstacleID { return recs[i].Obstacle }))
		slices.Sort(ids)
		out = append(out, PreAggregate{
			Floor:       floor,
			Obstacles:   ids,
			Outline:     outline,
			Bounds:      vmath.Bounds(outline),
			Approximate: approx,
		})
	}
	return out
}

// MergePreAggregatesIntoAreas unions overlapping pre-aggregates across floors into areas
func MergePreAggregatesIntoAreas(pre []PreAggregate) []Area {
	outlines := lo.Map(pre, func(p PreAggregate, _ int) vmath.Polygon { return p.Outline })
	groups := overlapGroups(outlines)
	areas := make([]Area, 0, len(groups))
	for i, g := range groups {
		members := lo.Map(g, func(k int, _ int) PreAggregate { return pre[k] })
		outline, approx := foldMerge(lo.Map(members, func(p PreAggregate, _ int) vmath.Polygon { return p.Outline }))
		approx = approx || lo.SomeBy(members, func(p PreAggregate) bool { return p.Approximate })

		ids := lo.Uniq(lo.FlatMap(members, func(p PreAggregate, _ int) []ObstacleID { return p.Obstacles }))
		slices.Sort(ids)
		floors := lo.Uniq(lo.Map(members, func(p PreAggregate, _ int) FloorID { return p.Floor }))
		slices.Sort(floors)

		areas = append(areas, Area{
			ID:          i,
			Outline:     outline,
			Bounds:      vmath.Bounds(outline),
			Obstacles:   ids,
			Floors:      floors,
			Approximate: approx,
		})
	}
	return areas
}
