package layout

import (
	"context"
	"fmt"
)

// Box is a node handed to a [Placer]: an id and its footprint.
type Box struct {
	ID     string
	Width  float64
	Height float64
}

// Link is a directed edge between two boxes.
type Link struct {
	Source string
	Target string
}

// Point is the top-left corner assigned to a box.
type Point struct {
	X float64
	Y float64
}

// Placer is the layered placement primitive: it receives sized boxes and
// directed links and returns a top-left position per box id.
//
// Implementations only read Direction, NodeSpacing and RankSpacing from
// the config. Links with unknown endpoints are ignored. A box missing from
// the returned map is treated as unplaced by the caller.
type Placer interface {
	Place(ctx context.Context, boxes []Box, links []Link, cfg Config) (map[string]Point, error)
}

// PlacerFunc adapts a function to the [Placer] interface.
type PlacerFunc func(ctx context.Context, boxes []Box, links []Link, cfg Config) (map[string]Point, error)

// Place calls f.
func (f PlacerFunc) Place(ctx context.Context, boxes []Box, links []Link, cfg Config) (map[string]Point, error) {
	return f(ctx, boxes, links, cfg)
}

// NewPlacer returns the placer for an engine name.
func NewPlacer(engine string) (Placer, error) {
	switch engine {
	case "", EngineSugiyama:
		return Sugiyama{}, nil
	case EngineGraphviz:
		return Graphviz{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEngine, engine)
	}
}
