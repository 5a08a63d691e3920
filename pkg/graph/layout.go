package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

// =============================================================================
// Layout - Positioned Graph Format
// =============================================================================

// Layout is the serialization format for positioned graphs, used for layout
// files, API responses and cache entries.
//
// Nodes carry group-local coordinates for group members and page
// coordinates for everything else. Width and Height are the page extent
// of the top-level nodes.
type Layout struct {
	Direction diagram.Direction        `json:"direction,omitempty" bson:"direction,omitempty"`
	Width     float64                  `json:"width" bson:"width"`
	Height    float64                  `json:"height" bson:"height"`
	Nodes     []diagram.PositionedNode `json:"nodes" bson:"nodes"`
	Edges     []diagram.Edge           `json:"edges" bson:"edges"`

	// SourcePath is the diagram file the layout was computed from, if any.
	SourcePath string `json:"source_path,omitempty" bson:"source_path,omitempty"`
}

// FromLayout wraps a computed layout for serialization.
func FromLayout(l diagram.Layout, sourcePath string) Layout {
	w, h := l.Bounds()
	out := Layout{
		Direction:  l.Direction,
		Width:      w,
		Height:     h,
		Nodes:      l.Nodes,
		Edges:      l.Edges,
		SourcePath: sourcePath,
	}
	if out.Nodes == nil {
		out.Nodes = []diagram.PositionedNode{}
	}
	if out.Edges == nil {
		out.Edges = []diagram.Edge{}
	}
	return out
}

// ToLayout returns the positioned graph without the page metadata.
func (l Layout) ToLayout() diagram.Layout {
	return diagram.Layout{Direction: l.Direction, Nodes: l.Nodes, Edges: l.Edges}
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout. Every edge must
// reference a positioned node.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Nodes == nil {
		l.Nodes = []diagram.PositionedNode{}
	}
	if l.Edges == nil {
		l.Edges = []diagram.Edge{}
	}

	ids := make(map[string]bool, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.ID == "" {
			return Layout{}, fmt.Errorf("layout node without id")
		}
		ids[n.ID] = true
	}
	for _, e := range l.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			return Layout{}, fmt.Errorf("layout edge %s references unknown node", e.ID)
		}
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
