package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/graph"
	"github.com/matzehuels/stackflow/pkg/layout"
)

// =============================================================================
// Layout Generation
// =============================================================================

// ComputeLayout positions the nodes of g. Defaults are applied to opts.
func ComputeLayout(ctx context.Context, g diagram.Graph, opts Options) (*layout.Result, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	return layout.Layout(ctx, g, opts.LayoutConfig())
}

// layoutRecord is the cached form of a layout result.
type layoutRecord struct {
	Layout   json.RawMessage `json:"layout"`
	Grouped  bool            `json:"grouped"`
	Overlap  *layout.Report  `json:"overlap,omitempty"`
	Unplaced int             `json:"unplaced"`
}

func marshalLayout(r *layout.Result) ([]byte, error) {
	l, err := graph.MarshalLayout(graph.FromLayout(r.Layout, ""))
	if err != nil {
		return nil, err
	}
	return json.Marshal(layoutRecord{
		Layout:   l,
		Grouped:  r.Grouped,
		Overlap:  r.Overlap,
		Unplaced: r.Unplaced,
	})
}

func unmarshalLayout(data []byte) (*layout.Result, error) {
	var rec layoutRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode layout record: %w", err)
	}
	l, err := graph.UnmarshalLayout(rec.Layout)
	if err != nil {
		return nil, err
	}
	return &layout.Result{
		Layout:   l.ToLayout(),
		Grouped:  rec.Grouped,
		Overlap:  rec.Overlap,
		Unplaced: rec.Unplaced,
	}, nil
}
