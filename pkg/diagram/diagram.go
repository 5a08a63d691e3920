package diagram

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// NodeType is the semantic render type of a node.
type NodeType string

const (
	TypeStart    NodeType = "start"
	TypeEnd      NodeType = "end"
	TypeProcess  NodeType = "process"
	TypeDecision NodeType = "decision"
	TypeDatabase NodeType = "database"
	TypeClient   NodeType = "client"
	TypeServer   NodeType = "server"
	TypeGroup    NodeType = "group"
)

// Category is the visibility filter bucket of a node. It is independent of
// the render type: a process node inside a "Backend" swimlane is still a
// server for filtering purposes.
type Category string

const (
	CategoryClient   Category = "client"
	CategoryServer   Category = "server"
	CategoryDatabase Category = "database"
	CategoryGroup    Category = "group"
	CategoryOther    Category = "other"
)

// Shape is the notation token that declared a node.
type Shape string

const (
	ShapeNone             Shape = ""
	ShapeSquare           Shape = "square"
	ShapeRound            Shape = "round"
	ShapeStadium          Shape = "stadium"
	ShapeSubroutine       Shape = "subroutine"
	ShapeCylinder         Shape = "cylinder"
	ShapeCircle           Shape = "circle"
	ShapeDoubleCircle     Shape = "double-circle"
	ShapeDiamond          Shape = "diamond"
	ShapeHexagon          Shape = "hexagon"
	ShapeAsymmetric       Shape = "asymmetric"
	ShapeParallelogram    Shape = "parallelogram"
	ShapeParallelogramAlt Shape = "parallelogram-alt"
	ShapeTrapezoid        Shape = "trapezoid"
	ShapeTrapezoidAlt     Shape = "trapezoid-alt"
)

// StrokeStyle is the line style of an edge as written in the notation.
type StrokeStyle string

const (
	StrokeSolid  StrokeStyle = "solid"
	StrokeDotted StrokeStyle = "dotted"
	StrokeThick  StrokeStyle = "thick"
)

// Direction is the flow direction of a diagram or layout.
type Direction string

const (
	DirectionTB Direction = "TB"
	DirectionBT Direction = "BT"
	DirectionLR Direction = "LR"
	DirectionRL Direction = "RL"
)

// ParseDirection normalizes a direction token. "TD" is accepted as an alias
// of "TB". It reports false for anything that is not one of the four
// axis-aligned directions.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TB", "TD":
		return DirectionTB, true
	case "BT":
		return DirectionBT, true
	case "LR":
		return DirectionLR, true
	case "RL":
		return DirectionRL, true
	}
	return "", false
}

// Horizontal reports whether ranks advance along the x axis.
func (d Direction) Horizontal() bool { return d == DirectionLR || d == DirectionRL }

// Reversed reports whether ranks advance towards negative coordinates.
func (d Direction) Reversed() bool { return d == DirectionBT || d == DirectionRL }

// Metadata stores arbitrary key-value pairs attached to a node after
// construction, typically from structured metadata comments in the source.
type Metadata map[string]any

// Node is a vertex of the canonical model.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Category Category `json:"category"`
	Label    string   `json:"label"`
	ParentID string   `json:"parent_id,omitempty"`
	Shape    Shape    `json:"shape,omitempty"`
	Color    string   `json:"color,omitempty"` // groups only
	Metadata Metadata `json:"metadata,omitempty"`
}

// IsGroup reports whether the node is a swimlane container.
func (n Node) IsGroup() bool { return n.Type == TypeGroup }

// Edge connects two nodes of the same graph.
type Edge struct {
	ID       string      `json:"id"`
	Source   string      `json:"source"`
	Target   string      `json:"target"`
	Label    string      `json:"label,omitempty"`
	Stroke   StrokeStyle `json:"stroke"`
	Dashed   bool        `json:"dashed,omitempty"`
	Animated bool        `json:"animated,omitempty"`
	Directed bool        `json:"directed"`
}

// EdgeID returns the deterministic identifier of the index-th edge between
// source and target.
func EdgeID(index int, source, target string) string {
	return fmt.Sprintf("e%d-%s-%s", index, source, target)
}

// Graph is the canonical parse result: an ordered node list and an ordered
// edge list. Order is significant; it drives group color cycling and layout
// tie-breaks.
type Graph struct {
	Direction Direction `json:"direction,omitempty"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
}

// Empty reports whether the graph has neither nodes nor edges.
func (g Graph) Empty() bool { return len(g.Nodes) == 0 && len(g.Edges) == 0 }

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Groups returns the group nodes in declaration order.
func (g Graph) Groups() []Node {
	var groups []Node
	for _, n := range g.Nodes {
		if n.IsGroup() {
			groups = append(groups, n)
		}
	}
	return groups
}

// Members returns the nodes whose parent is groupID, in graph order.
func (g Graph) Members(groupID string) []Node {
	var members []Node
	for _, n := range g.Nodes {
		if n.ParentID == groupID && !n.IsGroup() {
			members = append(members, n)
		}
	}
	return members
}

// Clone returns a deep copy of the graph. Metadata maps are copied one level
// deep.
func (g Graph) Clone() Graph {
	out := Graph{
		Direction: g.Direction,
		Nodes:     make([]Node, len(g.Nodes)),
		Edges:     slices.Clone(g.Edges),
	}
	for i, n := range g.Nodes {
		if n.Metadata != nil {
			n.Metadata = maps.Clone(n.Metadata)
		}
		out.Nodes[i] = n
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}

// Validate checks the structural invariants of the model: unique node ids,
// parents that reference existing groups, no self-parenting, and edges whose
// endpoints exist.
func (g Graph) Validate() error {
	ids := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return ErrEmptyNodeID
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		ids[n.ID] = n
	}
	for _, n := range g.Nodes {
		if n.ParentID == "" {
			continue
		}
		if n.ParentID == n.ID {
			return fmt.Errorf("%w: %s", ErrSelfParent, n.ID)
		}
		p, ok := ids[n.ParentID]
		if !ok || !p.IsGroup() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidParent, n.ID, n.ParentID)
		}
	}
	for _, e := range g.Edges {
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("%w: %s", ErrDanglingEdge, e.ID)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("%w: %s", ErrDanglingEdge, e.ID)
		}
	}
	return nil
}
