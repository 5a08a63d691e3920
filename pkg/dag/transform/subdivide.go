package transform

import (
	"fmt"

	"github.com/matzehuels/stackflow/pkg/dag"
)

// Subdivide breaks edges that span multiple rows into sequences of single-row
// edges connected by synthetic subdivider nodes:
//
//	Before: a (row 0) → d (row 3)
//	After:  a → a_sub_1 → a_sub_2 → d
//
// Subdividers have a zero footprint and carry the source ID as MasterID.
// IDs take the form "master_sub_row"; collisions get a numeric suffix.
// Edges pointing upward are left alone.
func Subdivide(g *dag.DAG) {
	gen := newIDGen(g.Nodes())

	var toRemove []dag.Edge
	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		toRemove = append(toRemove, e)
		prevID := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			prevID = addSubdivider(g, gen, prevID, src.ID, row)
		}
		if err := g.AddEdge(dag.Edge{From: prevID, To: dst.ID}); err != nil {
			panic(err)
		}
	}

	for _, e := range toRemove {
		g.RemoveEdge(e.From, e.To)
	}
}

func addSubdivider(g *dag.DAG, gen *idGen, from, master string, row int) string {
	id := gen.next(master, row)
	if err := g.AddNode(dag.Node{
		ID:       id,
		Row:      row,
		Kind:     dag.NodeKindSubdivider,
		MasterID: master,
	}); err != nil {
		panic(err)
	}
	if err := g.AddEdge(dag.Edge{From: from, To: id}); err != nil {
		panic(err)
	}
	return id
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s_sub_%d", base, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
