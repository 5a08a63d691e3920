package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/stackflow/pkg/graph"
	"github.com/matzehuels/stackflow/pkg/parser"
)

// Compile turns diagram text into the canonical graph.
func Compile(ctx context.Context, src string, opts Options) (*parser.Result, error) {
	opts.SetCompileDefaults()
	return parser.NewCompiler(opts.CompilerOptions()...).Compile(ctx, src)
}

// compileRecord is the cached form of a compilation. It keeps the parser
// route and counters next to the graph so a hit reports the same stats as
// the original run.
type compileRecord struct {
	Graph          json.RawMessage `json:"graph"`
	Path           parser.Path     `json:"path"`
	FallbackReason string          `json:"fallback_reason,omitempty"`
	DroppedEdges   int             `json:"dropped_edges"`
	InvalidRecords int             `json:"invalid_records"`
}

func marshalCompile(r *parser.Result) ([]byte, error) {
	g, err := graph.MarshalGraph(r.Graph)
	if err != nil {
		return nil, err
	}
	return json.Marshal(compileRecord{
		Graph:          g,
		Path:           r.Path,
		FallbackReason: r.FallbackReason,
		DroppedEdges:   r.DroppedEdges,
		InvalidRecords: r.InvalidRecords,
	})
}

func unmarshalCompile(data []byte) (*parser.Result, error) {
	var rec compileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode compile record: %w", err)
	}
	g, err := graph.UnmarshalGraph(rec.Graph)
	if err != nil {
		return nil, err
	}
	return &parser.Result{
		Graph:          g,
		Path:           rec.Path,
		FallbackReason: rec.FallbackReason,
		DroppedEdges:   rec.DroppedEdges,
		InvalidRecords: rec.InvalidRecords,
	}, nil
}
