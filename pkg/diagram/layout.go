package diagram

// PositionedNode is a node with concrete geometry.
//
// X and Y are the top-left corner. For members of a group they are relative to
// the group's own top-left corner; for groups and ungrouped nodes they are
// page coordinates.
type PositionedNode struct {
	Node
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (p PositionedNode) Right() float64 { return p.X + p.Width }

// Bottom returns the y coordinate of the bottom edge.
func (p PositionedNode) Bottom() float64 { return p.Y + p.Height }

// CenterX returns the horizontal center.
func (p PositionedNode) CenterX() float64 { return p.X + p.Width/2 }

// CenterY returns the vertical center.
func (p PositionedNode) CenterY() float64 { return p.Y + p.Height/2 }

// Layout is the output of the layout stage. Edges are passed through
// unchanged from the input graph.
type Layout struct {
	Direction Direction        `json:"direction,omitempty"`
	Nodes     []PositionedNode `json:"nodes"`
	Edges     []Edge           `json:"edges"`
}

// Bounds returns the extent of all top-level nodes (groups and ungrouped
// nodes). Group members are already contained in their group.
func (l Layout) Bounds() (width, height float64) {
	for _, n := range l.Nodes {
		if n.ParentID != "" {
			continue
		}
		width = max(width, n.Right())
		height = max(height, n.Bottom())
	}
	return width, height
}

// Node returns the positioned node with the given id.
func (l Layout) Node(id string) (PositionedNode, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return PositionedNode{}, false
}
