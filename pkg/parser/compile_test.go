package parser

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/parser/raw"
)

func compile(t *testing.T, src string, opts ...Option) *Result {
	t.Helper()
	res, err := NewCompiler(opts...).Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	return res
}

func TestCompileEmpty(t *testing.T) {
	for _, src := range []string{"", "   \n\t", "```mermaid\n```", "flowchart TD\n%% just a comment"} {
		res := compile(t, src)
		if len(res.Graph.Nodes) != 0 || len(res.Graph.Edges) != 0 {
			t.Errorf("Compile(%q) = %d nodes, %d edges; want empty", src, len(res.Graph.Nodes), len(res.Graph.Edges))
		}
		if res.Graph.Nodes == nil || res.Graph.Edges == nil {
			t.Errorf("Compile(%q) returned nil slices", src)
		}
	}

	data, err := json.Marshal(compile(t, "").Graph)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"nodes":[],"edges":[]}` {
		t.Errorf("empty graph JSON = %s", data)
	}
}

func TestCompileSimpleFlow(t *testing.T) {
	for _, force := range []bool{false, true} {
		var opts []Option
		if force {
			opts = append(opts, ForceFallback())
		}
		res := compile(t, "flowchart TD\n    A[Start] --> B[End]", opts...)
		g := res.Graph

		if len(g.Nodes) != 2 || len(g.Edges) != 1 {
			t.Fatalf("force=%v: got %d nodes, %d edges; want 2, 1", force, len(g.Nodes), len(g.Edges))
		}
		if g.Nodes[0].Label != "Start" || g.Nodes[1].Label != "End" {
			t.Errorf("force=%v: labels = %q, %q", force, g.Nodes[0].Label, g.Nodes[1].Label)
		}
		if g.Nodes[0].Type != diagram.TypeStart || g.Nodes[1].Type != diagram.TypeEnd {
			t.Errorf("force=%v: types = %q, %q", force, g.Nodes[0].Type, g.Nodes[1].Type)
		}
		e := g.Edges[0]
		if e.Source != "A" || e.Target != "B" || e.ID != "e0-A-B" || !e.Directed {
			t.Errorf("force=%v: edge = %+v", force, e)
		}
		if g.Direction != diagram.DirectionTB {
			t.Errorf("force=%v: direction = %q, want TB", force, g.Direction)
		}
		wantPath := PathGrammar
		if force {
			wantPath = PathFallback
		}
		if res.Path != wantPath {
			t.Errorf("force=%v: path = %q, want %q", force, res.Path, wantPath)
		}
	}
}

func TestCompileSubgraph(t *testing.T) {
	src := `flowchart LR
    subgraph G1
        A[Node A]
    end
    A --> B[Node B]`

	for _, force := range []bool{false, true} {
		var opts []Option
		if force {
			opts = append(opts, ForceFallback())
		}
		g := compile(t, src, opts...).Graph

		grp, ok := g.Node("G1")
		if !ok || !grp.IsGroup() {
			t.Fatalf("force=%v: missing group G1 in %+v", force, g.Nodes)
		}
		if grp.Color != diagram.DefaultPalette[0] {
			t.Errorf("force=%v: group color = %q", force, grp.Color)
		}
		a, _ := g.Node("A")
		if a.ParentID != "G1" {
			t.Errorf("force=%v: A.ParentID = %q, want G1", force, a.ParentID)
		}
		b, _ := g.Node("B")
		if b.ParentID != "" {
			t.Errorf("force=%v: B.ParentID = %q, want empty", force, b.ParentID)
		}
		if err := g.Validate(); err != nil {
			t.Errorf("force=%v: Validate() = %v", force, err)
		}
	}
}

func TestCompileShapeTyping(t *testing.T) {
	for _, force := range []bool{false, true} {
		var opts []Option
		if force {
			opts = append(opts, ForceFallback())
		}
		g := compile(t, "graph TD\nDB[(Database)] --> S[Server]", opts...).Graph
		db, _ := g.Node("DB")
		s, _ := g.Node("S")
		if db.Type != diagram.TypeDatabase || db.Shape != diagram.ShapeCylinder {
			t.Errorf("force=%v: DB = %q/%q, want database/cylinder", force, db.Type, db.Shape)
		}
		if s.Type != diagram.TypeServer {
			t.Errorf("force=%v: S type = %q, want server", force, s.Type)
		}
		if db.Category != diagram.CategoryDatabase || s.Category != diagram.CategoryServer {
			t.Errorf("force=%v: categories = %q, %q", force, db.Category, s.Category)
		}
	}
}

func TestCompileFallbackEquivalence(t *testing.T) {
	inputs := []string{
		"A[Start] --> B[End]",
		"graph LR\nX(Round) -.-> Y{Check?}",
		"flowchart TD\nP([Begin]) ==> Q[[Worker]]",
		"node-1[Foo] --> node-2[Bar]",
		`A["quoted [x]"] --> B`,
		"A -- yes [ok] --> B",
		"A --o B --x C",
		"graph[Graph] --> B",
	}
	for _, src := range inputs {
		primary := compile(t, src).Graph
		fallback := compile(t, src, ForceFallback()).Graph
		if len(primary.Nodes) != len(fallback.Nodes) || len(primary.Edges) != len(fallback.Edges) {
			t.Fatalf("%q: grammar %d/%d, fallback %d/%d", src,
				len(primary.Nodes), len(primary.Edges), len(fallback.Nodes), len(fallback.Edges))
		}
		for i := range primary.Nodes {
			if primary.Nodes[i].Label != fallback.Nodes[i].Label {
				t.Errorf("%q: node %d label %q vs %q", src, i, primary.Nodes[i].Label, fallback.Nodes[i].Label)
			}
		}
		for i := range primary.Edges {
			if primary.Edges[i] != fallback.Edges[i] {
				t.Errorf("%q: edge %d %+v vs %+v", src, i, primary.Edges[i], fallback.Edges[i])
			}
		}
	}
}

func TestCompileGrammarFailureFallsBack(t *testing.T) {
	res := compile(t, "A[Start] --> B[End] ))")
	if res.Path != PathFallback {
		t.Fatalf("path = %q, want fallback", res.Path)
	}
	if res.FallbackReason == "" {
		t.Error("FallbackReason is empty")
	}
	if len(res.Graph.Nodes) != 2 || len(res.Graph.Edges) != 1 {
		t.Errorf("got %d nodes, %d edges; want 2, 1", len(res.Graph.Nodes), len(res.Graph.Edges))
	}
}

func TestCompileNestedBracketsFallsBack(t *testing.T) {
	res := compile(t, "A(foo (bar)) --> B")
	if res.Path != PathFallback {
		t.Fatalf("path = %q, want fallback", res.Path)
	}
	g := res.Graph
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("got %d nodes, %d edges; want 2, 1", len(g.Nodes), len(g.Edges))
	}
	if g.Nodes[0].Label != "foo (bar)" || g.Nodes[1].ID != "B" {
		t.Errorf("nodes = %+v", g.Nodes)
	}
}

func TestCompileKeywordAsNodeID(t *testing.T) {
	res := compile(t, "graph[Graph] --> B")
	if res.Path != PathGrammar {
		t.Errorf("path = %q, want grammar", res.Path)
	}
	g := res.Graph
	if len(g.Nodes) != 2 || g.Nodes[0].ID != "graph" || g.Nodes[0].Label != "Graph" || len(g.Edges) != 1 {
		t.Errorf("graph = %+v", g)
	}
}

// edgesOnly mimics a grammar that loses node declarations.
type edgesOnly struct{}

func (edgesOnly) Interpret(context.Context, string) (raw.Interpretation, error) {
	return &raw.Records{E: []raw.Edge{{Source: "A", Target: "B", Directed: true}}}, nil
}

type failing struct{}

func (failing) Interpret(context.Context, string) (raw.Interpretation, error) {
	return nil, errors.New("boom")
}

func TestCompileStructuralInconsistency(t *testing.T) {
	res := compile(t, "A[One] --> B[Two]", WithGrammar(edgesOnly{}))
	if res.Path != PathFallback {
		t.Fatalf("path = %q, want fallback", res.Path)
	}
	if res.FallbackReason != ErrStructural.Error() {
		t.Errorf("reason = %q", res.FallbackReason)
	}
	if len(res.Graph.Nodes) != 2 {
		t.Errorf("got %d nodes, want 2", len(res.Graph.Nodes))
	}

	res = compile(t, "A --> B", WithGrammar(failing{}))
	if res.Path != PathFallback || len(res.Graph.Edges) != 1 {
		t.Errorf("failing grammar: path %q, %d edges", res.Path, len(res.Graph.Edges))
	}
}

func TestCompileMetadata(t *testing.T) {
	src := `%% {"id": "A", "metadata": {"owner": "payments", "tier": 1}}
%% {"id": "B", "metadata": not json}
%% {"id": "ghost", "metadata": {"x": 1}}
flowchart TD
A[Charge] --> B[Notify]`

	g := compile(t, src).Graph
	a, _ := g.Node("A")
	if a.Metadata["owner"] != "payments" || a.Metadata["tier"] != float64(1) {
		t.Errorf("A metadata = %v", a.Metadata)
	}
	b, _ := g.Node("B")
	if b.Metadata != nil {
		t.Errorf("B metadata = %v, want nil", b.Metadata)
	}
	if _, ok := g.Node("ghost"); ok {
		t.Error("metadata created a node")
	}
}

func TestCompileNoSelfParent(t *testing.T) {
	inputs := []string{
		"subgraph A\nA --> B\nend",
		"subgraph G\nG --> X & Y\nX --> Z\nend",
		"subgraph S1\nsubgraph S2\nQ --> R\nend\nend",
	}
	for _, src := range inputs {
		for _, force := range []bool{false, true} {
			var opts []Option
			if force {
				opts = append(opts, ForceFallback())
			}
			g := compile(t, src, opts...).Graph
			for _, n := range g.Nodes {
				if n.ParentID == n.ID {
					t.Errorf("%q force=%v: %s is its own parent", src, force, n.ID)
				}
			}
			if err := g.Validate(); err != nil {
				t.Errorf("%q force=%v: Validate() = %v", src, force, err)
			}
		}
	}
}

func TestCompileDeterministic(t *testing.T) {
	src := `flowchart TD
subgraph Frontend
  UI[Web app] --> API
end
subgraph Backend
  API[API] --> DB[(Orders)]
  API -.->|audit| LOG[Audit log]
end
UI --> X{Valid?}
X -- yes --> DONE([Done])`

	for _, force := range []bool{false, true} {
		var opts []Option
		if force {
			opts = append(opts, ForceFallback())
		}
		first, _ := json.Marshal(compile(t, src, opts...).Graph)
		second, _ := json.Marshal(compile(t, src, opts...).Graph)
		if string(first) != string(second) {
			t.Errorf("force=%v: output differs between runs", force)
		}
	}
}

func TestCompileGroupTypeOverride(t *testing.T) {
	src := "subgraph Backend\nA[Compute]\nB{Decide}\nend"

	g := compile(t, src).Graph
	a, _ := g.Node("A")
	b, _ := g.Node("B")
	if a.Type != diagram.TypeServer || b.Type != diagram.TypeServer {
		t.Errorf("override on: types = %q, %q; want server, server", a.Type, b.Type)
	}
	if a.Category != diagram.CategoryServer {
		t.Errorf("category = %q, want server", a.Category)
	}

	opts := DefaultBuilderOptions()
	opts.GroupTypeOverride = false
	g = compile(t, src, WithBuilderOptions(opts)).Graph
	b, _ = g.Node("B")
	if b.Type != diagram.TypeDecision || b.Category != diagram.CategoryServer {
		t.Errorf("override off: B = %q/%q, want decision/server", b.Type, b.Category)
	}
}

func TestCompilePalette(t *testing.T) {
	src := "subgraph one\nA\nend\nsubgraph two\nB\nend\nsubgraph three\nC\nend"
	g := compile(t, src, WithPalette(diagram.Palette{"#111", "#222"})).Graph
	want := []string{"#111", "#222", "#111"}
	for i, grp := range g.Groups() {
		if grp.Color != want[i] {
			t.Errorf("group %s color = %q, want %q", grp.ID, grp.Color, want[i])
		}
	}
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCompiler().Compile(ctx, "A --> B"); !errors.Is(err, context.Canceled) {
		t.Errorf("Compile() error = %v, want context.Canceled", err)
	}
}
