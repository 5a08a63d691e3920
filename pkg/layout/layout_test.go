package layout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

func node(id string, typ diagram.NodeType, parent string) diagram.Node {
	return diagram.Node{ID: id, Type: typ, Label: id, ParentID: parent}
}

func edge(src, dst string) diagram.Edge {
	return diagram.Edge{ID: src + "-" + dst, Source: src, Target: dst, Stroke: diagram.StrokeSolid, Directed: true}
}

func groupedGraph() diagram.Graph {
	return diagram.Graph{
		Nodes: []diagram.Node{
			node("G1", diagram.TypeGroup, ""),
			node("G2", diagram.TypeGroup, ""),
			node("G3", diagram.TypeGroup, ""),
			node("A", diagram.TypeProcess, "G1"),
			node("B", diagram.TypeProcess, "G1"),
			node("C", diagram.TypeProcess, "G2"),
			node("D", diagram.TypeProcess, ""),
			node("E", diagram.TypeProcess, ""),
		},
		Edges: []diagram.Edge{
			edge("A", "B"),
			edge("A", "C"),
			edge("B", "D"),
			edge("D", "E"),
		},
	}
}

func TestLayoutEmpty(t *testing.T) {
	res, err := Layout(context.Background(), diagram.Graph{}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(res.Layout)
	if string(data) != `{"direction":"TB","nodes":[],"edges":[]}` {
		t.Errorf("empty layout = %s", data)
	}
}

func TestLayoutGrouped(t *testing.T) {
	res, err := Layout(context.Background(), groupedGraph(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Grouped || res.Overlap != nil {
		t.Errorf("Grouped = %v, Overlap = %v", res.Grouped, res.Overlap)
	}

	type geom struct{ X, Y, W, H float64 }
	want := []struct {
		id string
		g  geom
	}{
		{"G1", geom{50, 50, 230, 290}},
		{"A", geom{40, 80, 150, 50}},
		{"B", geom{40, 200, 150, 50}},
		{"G2", geom{50, 400, 230, 170}},
		{"C", geom{40, 80, 150, 50}},
		{"G3", geom{50, 630, 300, 200}},
		{"D", geom{450, 50, 150, 50}},
		{"E", geom{450, 170, 150, 50}},
	}
	nodes := res.Layout.Nodes
	if len(nodes) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(nodes), len(want))
	}
	for i, w := range want {
		n := nodes[i]
		got := geom{n.X, n.Y, n.Width, n.Height}
		if n.ID != w.id || got != w.g {
			t.Errorf("nodes[%d] = %s %+v, want %s %+v", i, n.ID, got, w.id, w.g)
		}
	}
	if len(res.Layout.Edges) != 4 {
		t.Errorf("edges = %d, want 4 passed through", len(res.Layout.Edges))
	}
}

func TestLayoutContainmentOrder(t *testing.T) {
	g := groupedGraph()
	// Shuffle declaration order: members before their groups.
	g.Nodes = append(g.Nodes[3:], g.Nodes[:3]...)

	res, err := Layout(context.Background(), g, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, n := range res.Layout.Nodes {
		if n.ParentID != "" && !seen[n.ParentID] {
			t.Errorf("%s appears before its group %s", n.ID, n.ParentID)
		}
		seen[n.ID] = true
	}
	if len(seen) != len(g.Nodes) {
		t.Errorf("positioned %d of %d nodes", len(seen), len(g.Nodes))
	}
}

func TestLayoutCrossPartitionEdgesIgnored(t *testing.T) {
	var calls [][]Link
	rec := PlacerFunc(func(ctx context.Context, b []Box, l []Link, cfg Config) (map[string]Point, error) {
		calls = append(calls, l)
		return Sugiyama{}.Place(ctx, b, l, cfg)
	})
	e, err := NewWithPlacer(DefaultConfig(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Layout(context.Background(), groupedGraph()); err != nil {
		t.Fatal(err)
	}
	// G1, G2, orphans; the empty G3 is never placed.
	if len(calls) != 3 {
		t.Fatalf("placer called %d times, want 3", len(calls))
	}
	want := [][]Link{{{"A", "B"}}, nil, {{"D", "E"}}}
	for i, w := range want {
		if len(calls[i]) != len(w) || (len(w) > 0 && calls[i][0] != w[0]) {
			t.Errorf("call %d links = %v, want %v", i, calls[i], w)
		}
	}
}

func TestLayoutPlacerFailure(t *testing.T) {
	fail := PlacerFunc(func(context.Context, []Box, []Link, Config) (map[string]Point, error) {
		return nil, errors.New("boom")
	})
	e, err := NewWithPlacer(DefaultConfig(), fail)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Layout(context.Background(), groupedGraph())
	if err != nil {
		t.Fatalf("Layout() error = %v, want best-effort result", err)
	}
	if res.Unplaced != 5 {
		t.Errorf("Unplaced = %d, want 5", res.Unplaced)
	}
	for _, n := range res.Layout.Nodes {
		if !n.IsGroup() && (n.X != 0 || n.Y != 0) {
			t.Errorf("%s at (%v, %v), want placeholder (0, 0)", n.ID, n.X, n.Y)
		}
	}
	g1, _ := res.Layout.Node("G1")
	if g1.Width != EmptyGroupWidth || g1.Height != EmptyGroupHeight {
		t.Errorf("G1 size = %vx%v", g1.Width, g1.Height)
	}
}

func TestLayoutPartialPlacement(t *testing.T) {
	partial := PlacerFunc(func(ctx context.Context, b []Box, l []Link, cfg Config) (map[string]Point, error) {
		pts, err := Sugiyama{}.Place(ctx, b, l, cfg)
		delete(pts, "B")
		return pts, err
	})
	e, _ := NewWithPlacer(DefaultConfig(), partial)
	res, err := e.Layout(context.Background(), groupedGraph())
	if err != nil {
		t.Fatal(err)
	}
	if res.Unplaced != 1 {
		t.Errorf("Unplaced = %d, want 1", res.Unplaced)
	}
	b, _ := res.Layout.Node("B")
	if b.X != 0 || b.Y != 0 {
		t.Errorf("B = (%v, %v), want (0, 0)", b.X, b.Y)
	}
	a, _ := res.Layout.Node("A")
	if a.X != GroupPadding || a.Y != GroupPadding+TitleBarHeight {
		t.Errorf("A = (%v, %v)", a.X, a.Y)
	}
}

func TestLayoutFlat(t *testing.T) {
	g := diagram.Graph{
		Nodes: []diagram.Node{
			node("A", diagram.TypeDecision, ""),
			node("B", diagram.TypeProcess, ""),
		},
		Edges: []diagram.Edge{edge("A", "B")},
	}

	res, err := Layout(context.Background(), g, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if res.Grouped || res.Overlap == nil || !res.Overlap.Converged || res.Overlap.Passes != 1 {
		t.Errorf("Grouped = %v, Overlap = %+v", res.Grouped, res.Overlap)
	}
	a, _ := res.Layout.Node("A")
	b, _ := res.Layout.Node("B")
	if a.X != 55 || a.Y != 50 || a.Width != 140 || a.Height != 140 {
		t.Errorf("A = %+v", a)
	}
	if b.X != 50 || b.Y != 260 {
		t.Errorf("B = %+v", b)
	}

	cfg := DefaultConfig()
	cfg.SkipOverlapResolve = true
	res, err = Layout(context.Background(), g, cfg)
	if err != nil {
		t.Fatal(err)
	}
	a, _ = res.Layout.Node("A")
	if res.Overlap != nil || a.X != 5 || a.Y != 0 {
		t.Errorf("raw A = %+v, overlap = %v", a, res.Overlap)
	}
}

func TestLayoutZeroConfigMatchesDefault(t *testing.T) {
	g := diagram.Graph{
		Nodes: []diagram.Node{node("A", diagram.TypeProcess, ""), node("B", diagram.TypeProcess, "")},
		Edges: []diagram.Edge{edge("A", "B")},
	}
	zero, err := Layout(context.Background(), g, Config{})
	if err != nil {
		t.Fatal(err)
	}
	def, err := Layout(context.Background(), g, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if zero.Overlap == nil {
		t.Error("zero Config skipped the overlap resolver")
	}
	a, _ := json.Marshal(zero.Layout)
	b, _ := json.Marshal(def.Layout)
	if string(a) != string(b) {
		t.Errorf("zero Config layout differs from default:\n%s\n%s", a, b)
	}
}

func TestLayoutDirection(t *testing.T) {
	g := groupedGraph()
	g.Direction = diagram.DirectionLR

	res, err := Layout(context.Background(), g, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if res.Layout.Direction != diagram.DirectionLR {
		t.Errorf("Direction = %q, want graph's LR", res.Layout.Direction)
	}
	b, _ := res.Layout.Node("B")
	if b.X != GroupPadding+150+DefaultRankSpacing {
		t.Errorf("B.X = %v, want rank axis along x", b.X)
	}

	cfg := DefaultConfig()
	cfg.Direction = "TD"
	res, err = Layout(context.Background(), g, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Layout.Direction != diagram.DirectionTB {
		t.Errorf("Direction = %q, want explicit TB", res.Layout.Direction)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	g := groupedGraph()
	g.Nodes = append(g.Nodes, node("F", diagram.TypeDecision, ""), node("H", diagram.TypeDatabase, ""))
	g.Edges = append(g.Edges, edge("E", "F"), edge("D", "H"), edge("H", "E"))

	first, err := Layout(context.Background(), g, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	want, _ := json.Marshal(first.Layout)
	for i := 0; i < 5; i++ {
		res, err := Layout(context.Background(), g, DefaultConfig())
		if err != nil {
			t.Fatal(err)
		}
		got, _ := json.Marshal(res.Layout)
		if string(got) != string(want) {
			t.Fatalf("run %d differs:\n%s\n%s", i, got, want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"Defaults", func(*Config) {}, nil},
		{"TDAlias", func(c *Config) { c.Direction = "TD" }, nil},
		{"BadDirection", func(c *Config) { c.Direction = "XY" }, ErrInvalidDirection},
		{"NegativeSpacing", func(c *Config) { c.NodeSpacing = Spacing(-1) }, ErrInvalidSpacing},
		{"ZeroSpacing", func(c *Config) { c.RankSpacing = Spacing(0) }, nil},
		{"BadEngine", func(c *Config) { c.Engine = "neato" }, ErrInvalidEngine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			tt.mutate(&cfg)
			err := cfg.ValidateAndSetDefaults()
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %v", err, tt.want)
			}
			if err == nil && (*cfg.NodeSpacing != DefaultNodeSpacing || cfg.Engine != DefaultEngine || cfg.Logger == nil) {
				t.Errorf("defaults not applied: %+v", cfg)
			}
		})
	}
}

func TestLayoutCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Layout(ctx, groupedGraph(), DefaultConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("Layout() error = %v, want context.Canceled", err)
	}
}

func TestFootprint(t *testing.T) {
	tests := []struct {
		typ  diagram.NodeType
		want Size
	}{
		{diagram.TypeProcess, Size{150, 50}},
		{diagram.TypeDecision, Size{140, 140}},
		{diagram.TypeStart, Size{120, 44}},
		{diagram.TypeEnd, Size{120, 44}},
		{diagram.TypeDatabase, Size{130, 70}},
		{diagram.TypeClient, Size{160, 56}},
		{diagram.TypeServer, Size{160, 56}},
		{"unknown", Size{150, 50}},
	}
	for _, tt := range tests {
		if got := Footprint(tt.typ); got != tt.want {
			t.Errorf("Footprint(%q) = %+v, want %+v", tt.typ, got, tt.want)
		}
	}
}
