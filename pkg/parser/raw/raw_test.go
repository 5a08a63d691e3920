package raw

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"Vertex", Vertex{ID: "A"}.Validate(), nil},
		{"VertexNoID", Vertex{Text: "orphan label"}.Validate(), ErrMissingID},
		{"Edge", Edge{Source: "A", Target: "B"}.Validate(), nil},
		{"EdgeNoSource", Edge{Target: "B"}.Validate(), ErrMissingEndpoint},
		{"EdgeNoTarget", Edge{Source: "A"}.Validate(), ErrMissingEndpoint},
		{"Subgraph", Subgraph{ID: "lane"}.Validate(), nil},
		{"SubgraphNoID", Subgraph{Title: "Lane"}.Validate(), ErrMissingID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("Validate() = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestRecords(t *testing.T) {
	var in Interpretation = &Records{
		V: []Vertex{{ID: "A"}, {ID: "B"}},
		E: []Edge{{Source: "A", Target: "B"}},
	}
	if len(in.Vertices()) != 2 || len(in.Edges()) != 1 || in.Subgraphs() != nil {
		t.Errorf("records = %d/%d/%d", len(in.Vertices()), len(in.Edges()), len(in.Subgraphs()))
	}
}
