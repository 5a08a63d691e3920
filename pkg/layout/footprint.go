package layout

import "github.com/matzehuels/stackflow/pkg/diagram"

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64
	Height float64
}

// Footprints are the sizes reserved for each node type during placement.
// They drive spacing only; renderers are free to draw smaller shapes.
var Footprints = map[diagram.NodeType]Size{
	diagram.TypeDecision: {140, 140},
	diagram.TypeStart:    {120, 44},
	diagram.TypeEnd:      {120, 44},
	diagram.TypeDatabase: {130, 70},
	diagram.TypeClient:   {160, 56},
	diagram.TypeServer:   {160, 56},
}

// DefaultFootprint is used for every type without an entry in [Footprints].
var DefaultFootprint = Size{150, 50}

// Footprint returns the placement size for a node type.
func Footprint(t diagram.NodeType) Size {
	if s, ok := Footprints[t]; ok {
		return s
	}
	return DefaultFootprint
}
