package grammar

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

func TestParseSimpleFlow(t *testing.T) {
	doc, err := Parse("A[Start] --> B[End]")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	vs := doc.Vertices()
	if len(vs) != 2 {
		t.Fatalf("got %d vertices, want 2", len(vs))
	}
	if vs[0].ID != "A" || vs[0].Text != "Start" || vs[0].Shape != diagram.ShapeSquare || vs[0].Implicit {
		t.Errorf("vertex A = %+v", vs[0])
	}
	es := doc.Edges()
	if len(es) != 1 || es[0].Source != "A" || es[0].Target != "B" || !es[0].Directed {
		t.Errorf("edges = %+v", es)
	}
}

func TestParseChainsAndFanOut(t *testing.T) {
	doc, err := Parse("A & B --> C --> D & E")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	var got [][2]string
	for _, e := range doc.Edges() {
		got = append(got, [2]string{e.Source, e.Target})
	}
	want := [][2]string{{"A", "C"}, {"B", "C"}, {"C", "D"}, {"C", "E"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
}

func TestParseLabels(t *testing.T) {
	doc, err := Parse("A -->|pipe| B\nB -- inline --> C\nC -.->|\"quoted\"| D")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := []string{"pipe", "inline", "quoted"}
	for i, e := range doc.Edges() {
		if e.Text != want[i] {
			t.Errorf("edge %d label = %q, want %q", i, e.Text, want[i])
		}
	}
	if doc.Edges()[2].Stroke != diagram.StrokeDotted {
		t.Errorf("edge 2 stroke = %q, want dotted", doc.Edges()[2].Stroke)
	}
}

func TestParseLaterDeclarationWins(t *testing.T) {
	doc, err := Parse("A --> B\nB{Decide}")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	b := doc.Vertices()[1]
	if b.ID != "B" || b.Shape != diagram.ShapeDiamond || b.Text != "Decide" || b.Implicit {
		t.Errorf("B = %+v", b)
	}
}

func TestParseSubgraphs(t *testing.T) {
	src := `subgraph outer [Outer lane]
  A[One]
  subgraph inner
    B --> C
  end
  A --> B
end
subgraph "Quoted Title"
  D
end
subgraph Two Words
  E
end`
	doc, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	sgs := doc.Subgraphs()
	if len(sgs) != 4 {
		t.Fatalf("got %d subgraphs, want 4", len(sgs))
	}
	tests := []struct {
		id, title string
		members   []string
	}{
		{"outer", "Outer lane", []string{"A", "inner", "B"}},
		{"inner", "inner", []string{"B", "C"}},
		{"Quoted_Title", "Quoted Title", []string{"D"}},
		{"Two_Words", "Two Words", []string{"E"}},
	}
	for i, tt := range tests {
		s := sgs[i]
		if s.ID != tt.id || s.Title != tt.title || !reflect.DeepEqual(s.Members, tt.members) {
			t.Errorf("subgraph %d = %+v, want %s/%s/%v", i, s, tt.id, tt.title, tt.members)
		}
	}
}

func TestParseSkippedStatements(t *testing.T) {
	src := `graph LR
classDef hot fill:#f96
A:::hot --> B
class B hot
style A stroke-width:4px
linkStyle 0 stroke:#ff3
click A "https://example.com"
direction TB`
	doc, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if doc.Direction != diagram.DirectionLR {
		t.Errorf("Direction = %q, want LR", doc.Direction)
	}
	if len(doc.Vertices()) != 2 || len(doc.Edges()) != 1 {
		t.Errorf("got %d vertices, %d edges", len(doc.Vertices()), len(doc.Edges()))
	}
	if got := doc.Vertices()[0].Classes; !reflect.DeepEqual(got, []string{"hot"}) {
		t.Errorf("A classes = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"UnclosedSubgraph", "subgraph a\nA"},
		{"StrayEnd", "A --> B\nend"},
		{"DanglingLink", "A -->"},
		{"LinkFirst", "--> B"},
		{"BadDirection", "direction XY"},
		{"TrailingGarbage", "A[x] B"},
		{"ReservedTarget", "A --> end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Parse(%q) error = %v, want *SyntaxError", tt.input, err)
			}
			if se.Line < 1 || se.Col < 1 {
				t.Errorf("position = %d:%d", se.Line, se.Col)
			}
		})
	}
}

func TestInterpreterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Interpreter{}).Interpret(ctx, "A --> B"); !errors.Is(err, context.Canceled) {
		t.Errorf("Interpret() error = %v, want context.Canceled", err)
	}
}
