package dag

import (
	"maps"
	"slices"
)

// CountCrossings returns the number of edge crossings between every pair of
// adjacent ranks in orders. Each entry lists a rank's node IDs left to right;
// a missing rank has no edges to count.
func CountCrossings(g *DAG, orders map[int][]string) int {
	total := 0
	for _, r := range slices.Sorted(maps.Keys(orders)) {
		if below, ok := orders[r+1]; ok {
			total += CountLayerCrossings(g, orders[r], below)
		}
	}
	return total
}

// CountLayerCrossings counts crossings among the edges from upper to lower.
//
// Edges (u1,v1) and (u2,v2) cross when u1 is left of u2 and v1 is right of v2.
// Listing the target positions in source order turns that into an inversion
// count, computed by merge sort in O(E log E).
func CountLayerCrossings(g *DAG, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	pos := PosMap(lower)

	var targets []int
	for _, id := range upper {
		start := len(targets)
		for _, child := range g.Children(id) {
			if p, ok := pos[child]; ok {
				targets = append(targets, p)
			}
		}
		// Edges sharing a source never cross each other.
		slices.Sort(targets[start:])
	}
	return inversions(targets, make([]int, len(targets)))
}

// inversions sorts xs and returns how many pairs were out of order.
func inversions(xs, buf []int) int {
	if len(xs) < 2 {
		return 0
	}
	mid := len(xs) / 2
	n := inversions(xs[:mid], buf[:mid]) + inversions(xs[mid:], buf[mid:])

	i, j, k := 0, mid, 0
	for i < mid && j < len(xs) {
		if xs[j] < xs[i] {
			n += mid - i
			buf[k] = xs[j]
			j++
		} else {
			buf[k] = xs[i]
			i++
		}
		k++
	}
	k += copy(buf[k:], xs[i:mid])
	copy(buf[k:], xs[j:])
	copy(xs, buf[:len(xs)])
	return n
}

// CountPairCrossings returns the crossings between the edges of left and
// right when left sits immediately before right in its rank. adjOrder is the
// neighboring rank: the one above when useParents is set, else the one below.
func CountPairCrossings(g *DAG, left, right string, adjOrder []string, useParents bool) int {
	return CountPairCrossingsWithPos(g, left, right, PosMap(adjOrder), useParents)
}

// CountPairCrossingsWithPos is [CountPairCrossings] with the neighboring
// rank given as a position map. Neighbors missing from adjPos are ignored.
func CountPairCrossingsWithPos(g *DAG, left, right string, adjPos map[string]int, useParents bool) int {
	neighbors := g.Children
	if useParents {
		neighbors = g.Parents
	}

	n := 0
	for _, l := range neighbors(left) {
		lp, ok := adjPos[l]
		if !ok {
			continue
		}
		for _, r := range neighbors(right) {
			if rp, ok := adjPos[r]; ok && rp < lp {
				n++
			}
		}
	}
	return n
}
