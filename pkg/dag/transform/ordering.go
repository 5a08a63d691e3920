package transform

import (
	"cmp"
	"slices"

	"github.com/matzehuels/stackflow/pkg/dag"
)

// DefaultSweeps is the number of barycentric sweeps used by [Layer].
const DefaultSweeps = 8

// Layer runs the full layering pipeline on g and returns the row orderings:
// cycle breaking, layer assignment, subdivision and crossing reduction.
func Layer(g *dag.DAG) map[int][]string {
	BreakCycles(g)
	AssignLayers(g)
	Subdivide(g)
	return OrderRows(g, DefaultSweeps)
}

// OrderRows orders the nodes of each row to reduce edge crossings.
//
// The initial ordering is insertion order. Even sweeps walk the rows
// downward and sort each row by the mean position of its parents; odd
// sweeps walk upward using children. Nodes without neighbors in the
// reference row keep their current position. Each sweep is followed by a
// transpose pass. The best ordering seen is returned and ties keep the
// earlier one, so the result is deterministic.
func OrderRows(g *dag.DAG, sweeps int) map[int][]string {
	rows := g.RowIDs()
	orders := make(map[int][]string, len(rows))
	for _, r := range rows {
		orders[r] = dag.NodeIDs(g.NodesInRow(r))
	}

	best := cloneOrders(orders)
	bestCrossings := dag.CountCrossings(g, orders)

	for i := 0; i < sweeps && bestCrossings > 0; i++ {
		if i%2 == 0 {
			for k := 1; k < len(rows); k++ {
				sortByBarycenter(orders[rows[k]], orders[rows[k-1]], g.Parents)
			}
		} else {
			for k := len(rows) - 2; k >= 0; k-- {
				sortByBarycenter(orders[rows[k]], orders[rows[k+1]], g.Children)
			}
		}
		transpose(g, orders, rows)

		if c := dag.CountCrossings(g, orders); c < bestCrossings {
			best = cloneOrders(orders)
			bestCrossings = c
		}
	}
	return best
}

func sortByBarycenter(row, ref []string, neighbors func(string) []string) {
	refPos := dag.PosMap(ref)
	bary := make(map[string]float64, len(row))
	for i, id := range row {
		sum, n := 0, 0
		for _, nb := range neighbors(id) {
			if p, ok := refPos[nb]; ok {
				sum += p
				n++
			}
		}
		if n == 0 {
			bary[id] = float64(i)
			continue
		}
		bary[id] = float64(sum) / float64(n)
	}
	slices.SortStableFunc(row, func(a, b string) int {
		return cmp.Compare(bary[a], bary[b])
	})
}

// transpose swaps adjacent nodes while doing so strictly lowers the crossings
// against both neighboring rows.
func transpose(g *dag.DAG, orders map[int][]string, rows []int) {
	for improved, pass := true, 0; improved && pass < len(rows)+4; pass++ {
		improved = false
		for k, r := range rows {
			var upper, lower map[string]int
			if k > 0 {
				upper = dag.PosMap(orders[rows[k-1]])
			}
			if k < len(rows)-1 {
				lower = dag.PosMap(orders[rows[k+1]])
			}
			row := orders[r]
			for j := 0; j+1 < len(row); j++ {
				l, rt := row[j], row[j+1]
				before := pairCrossings(g, l, rt, upper, lower)
				after := pairCrossings(g, rt, l, upper, lower)
				if after < before {
					row[j], row[j+1] = rt, l
					improved = true
				}
			}
		}
	}
}

func pairCrossings(g *dag.DAG, left, right string, upper, lower map[string]int) int {
	c := 0
	if upper != nil {
		c += dag.CountPairCrossingsWithPos(g, left, right, upper, true)
	}
	if lower != nil {
		c += dag.CountPairCrossingsWithPos(g, left, right, lower, false)
	}
	return c
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}
