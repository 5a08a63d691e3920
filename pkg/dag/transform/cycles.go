package transform

import "github.com/matzehuels/stackflow/pkg/dag"

// BreakCycles makes g acyclic and returns the back edges it found, in the
// order the search met them.
//
// The depth-first search starts from the sources in declaration order and
// then from any node still unvisited, so in a loop such as
// "Retry --> Submit" the edge pointing against the flow is the one turned
// around. Each back edge is reversed. A self loop, or a reversal that would
// duplicate an existing edge, is removed instead.
func BreakCycles(g *dag.DAG) []dag.Edge {
	const (
		unseen = iota
		onPath
		done
	)
	type frame struct {
		id   string
		next int
	}

	state := make(map[string]int, g.NodeCount())
	var back []dag.Edge
	visit := func(root string) {
		if state[root] != unseen {
			return
		}
		state[root] = onPath
		stack := []frame{{id: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := g.Children(top.id)
			if top.next == len(children) {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := children[top.next]
			top.next++
			switch state[child] {
			case unseen:
				state[child] = onPath
				stack = append(stack, frame{id: child})
			case onPath:
				back = append(back, dag.Edge{From: top.id, To: child})
			}
		}
	}

	for _, n := range g.Sources() {
		visit(n.ID)
	}
	for _, n := range g.Nodes() {
		visit(n.ID)
	}

	for _, e := range back {
		g.RemoveEdge(e.From, e.To)
		if e.From == e.To || g.HasEdge(e.To, e.From) {
			continue
		}
		if err := g.AddEdge(dag.Edge{From: e.To, To: e.From}); err != nil {
			panic(err)
		}
	}
	return back
}
