package cli

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/layout"
	"github.com/matzehuels/stackflow/pkg/parser"
	"github.com/matzehuels/stackflow/pkg/pipeline"
)

func TestGraphSummaryParts(t *testing.T) {
	tests := []struct {
		name    string
		summary graphSummary
		want    []string
	}{
		{
			name:    "Empty",
			summary: graphSummary{},
			want:    []string{"0 nodes", "0 edges", "fresh"},
		},
		{
			name:    "Singular",
			summary: graphSummary{Nodes: 1, Edges: 1, Groups: 1, Cached: true},
			want:    []string{"1 node", "1 edge", "1 group", "cached"},
		},
		{
			name:    "Fallback",
			summary: graphSummary{Nodes: 3, Edges: 2, Path: parser.PathFallback, Dropped: 1, Invalid: 2},
			want:    []string{"3 nodes", "2 edges", "fallback", "1 dropped edge", "2 invalid records", "fresh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.summary.parts(); !slices.Equal(got, tt.want) {
				t.Errorf("parts() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeGraphCountsGroupsSeparately(t *testing.T) {
	g := diagram.Graph{
		Nodes: []diagram.Node{
			{ID: "sg", Type: diagram.TypeGroup},
			{ID: "a", ParentID: "sg"},
			{ID: "b"},
		},
		Edges: []diagram.Edge{{Source: "a", Target: "b"}},
	}

	s := summarizeGraph(g, false)
	if s.Nodes != 2 || s.Groups != 1 || s.Edges != 1 {
		t.Errorf("summary = %+v, want 2 nodes, 1 group, 1 edge", s)
	}
}

func TestSummarizeCompile(t *testing.T) {
	res := &parser.Result{
		Graph:          diagram.Graph{Nodes: []diagram.Node{{ID: "a"}}},
		Path:           parser.PathGrammar,
		DroppedEdges:   2,
		InvalidRecords: 1,
	}

	s := summarizeCompile(res, true)
	if s.Path != parser.PathGrammar || s.Dropped != 2 || s.Invalid != 1 || !s.Cached {
		t.Errorf("summary = %+v", s)
	}
}

func TestSummarizePipelineNeedsBothHits(t *testing.T) {
	res := &pipeline.Result{
		Path:      parser.PathGrammar,
		CacheInfo: pipeline.CacheInfo{CompileHit: true},
	}
	if summarizePipeline(res).Cached {
		t.Error("layout miss should report fresh")
	}

	res.CacheInfo.LayoutHit = true
	if !summarizePipeline(res).Cached {
		t.Error("both stages hit should report cached")
	}
}

func TestReporterFallback(t *testing.T) {
	var buf bytes.Buffer
	r := &reporter{w: &buf}

	r.fallback("")
	if buf.Len() != 0 {
		t.Fatalf("empty reason wrote %q", buf.String())
	}

	r.fallback("line 2: unexpected token")
	got := buf.String()
	if !strings.Contains(got, "heuristic parser") || !strings.Contains(got, "line 2: unexpected token") {
		t.Errorf("fallback output = %q", got)
	}
}

func TestReporterLayoutReport(t *testing.T) {
	tests := []struct {
		name     string
		overlap  *layout.Report
		unplaced int
		want     []string
	}{
		{name: "Clean", overlap: &layout.Report{Passes: 1, Converged: true}},
		{name: "NoResolver"},
		{
			name:    "NotConverged",
			overlap: &layout.Report{Passes: 50},
			want:    []string{"after 50 resolver passes"},
		},
		{
			name:     "Unplaced",
			unplaced: 1,
			want:     []string{"1 node could not be placed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			(&reporter{w: &buf}).layoutReport(tt.overlap, tt.unplaced)
			got := buf.String()
			if len(tt.want) == 0 && got != "" {
				t.Errorf("unexpected output %q", got)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output %q missing %q", got, w)
				}
			}
		})
	}
}

func TestReporterFileSkipsStdout(t *testing.T) {
	var buf bytes.Buffer
	r := &reporter{w: &buf}
	r.file("-")
	r.file("")
	if buf.Len() != 0 {
		t.Errorf("stdout target wrote %q", buf.String())
	}
	r.file("out.layout.json")
	if !strings.Contains(buf.String(), "out.layout.json") {
		t.Errorf("output = %q", buf.String())
	}
}
