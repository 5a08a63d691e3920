package parser

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestFormatRoundTrip(t *testing.T) {
	src := `%% {"id": "DB", "metadata": {"engine": "postgres"}}
flowchart LR
subgraph core ["Core services"]
  API[API] --> DB[(Orders db)]
end
UI(Say "hi" now) -.->|calls| API
API == fast ==> C{{Cache?}}
C --- X`

	ctx := context.Background()
	first, err := Compile(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	text := Format(first.Graph)
	if !strings.HasPrefix(text, "flowchart LR\n") {
		t.Errorf("Format() header:\n%s", text)
	}

	second, err := Compile(ctx, text)
	if err != nil {
		t.Fatal(err)
	}
	if second.Path != PathGrammar {
		t.Errorf("formatted text took the %s path: %s", second.Path, second.FallbackReason)
	}
	if !reflect.DeepEqual(nodeIDs(first), nodeIDs(second)) {
		t.Errorf("node ids %v != %v", nodeIDs(first), nodeIDs(second))
	}
	for _, n := range first.Graph.Nodes {
		m, ok := second.Graph.Node(n.ID)
		if !ok {
			t.Errorf("node %s lost", n.ID)
			continue
		}
		if m.Label != n.Label || m.Type != n.Type || m.ParentID != n.ParentID || m.Shape != n.Shape {
			t.Errorf("node %s: %+v != %+v", n.ID, m, n)
		}
	}
	if len(first.Graph.Edges) != len(second.Graph.Edges) {
		t.Fatalf("edges %d != %d", len(first.Graph.Edges), len(second.Graph.Edges))
	}
	for i, e := range first.Graph.Edges {
		f := second.Graph.Edges[i]
		if e.Source != f.Source || e.Target != f.Target || e.Label != f.Label || e.Stroke != f.Stroke || e.Directed != f.Directed {
			t.Errorf("edge %d: %+v != %+v", i, f, e)
		}
	}
	db, _ := second.Graph.Node("DB")
	if db.Metadata["engine"] != "postgres" {
		t.Errorf("metadata lost: %v", db.Metadata)
	}
}

func nodeIDs(r *Result) []string {
	ids := make([]string, len(r.Graph.Nodes))
	for i, n := range r.Graph.Nodes {
		ids[i] = n.ID
	}
	return ids
}
