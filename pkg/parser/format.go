package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

var shapeSyntax = map[diagram.Shape][2]string{
	diagram.ShapeSquare:           {"[", "]"},
	diagram.ShapeRound:            {"(", ")"},
	diagram.ShapeStadium:          {"([", "])"},
	diagram.ShapeSubroutine:       {"[[", "]]"},
	diagram.ShapeCylinder:         {"[(", ")]"},
	diagram.ShapeCircle:           {"((", "))"},
	diagram.ShapeDoubleCircle:     {"(((", ")))"},
	diagram.ShapeDiamond:          {"{", "}"},
	diagram.ShapeHexagon:          {"{{", "}}"},
	diagram.ShapeAsymmetric:       {">", "]"},
	diagram.ShapeParallelogram:    {"[/", "/]"},
	diagram.ShapeParallelogramAlt: {`[\`, `\]`},
	diagram.ShapeTrapezoid:        {"[/", `\]`},
	diagram.ShapeTrapezoidAlt:     {`[\`, "/]"},
}

// Format writes a graph back as flowchart text that [Compiler.Compile] reads
// into an equivalent graph: node metadata as metadata comments, each group as
// a subgraph block holding its members, then ungrouped nodes, then edges.
func Format(g diagram.Graph) string {
	var b strings.Builder

	dir := g.Direction
	if dir == "" {
		dir = diagram.DirectionTB
	}
	fmt.Fprintf(&b, "flowchart %s\n", dir)

	for _, n := range g.Nodes {
		if len(n.Metadata) == 0 {
			continue
		}
		data, err := json.Marshal(metadataComment{ID: n.ID, Metadata: n.Metadata})
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "    %%%% %s\n", data)
	}

	for _, grp := range g.Groups() {
		fmt.Fprintf(&b, "    subgraph %s [\"%s\"]\n", grp.ID, escapeLabel(grp.Label))
		for _, m := range g.Members(grp.ID) {
			fmt.Fprintf(&b, "        %s\n", nodeDef(m))
		}
		b.WriteString("    end\n")
	}
	for _, n := range g.Nodes {
		if n.IsGroup() || n.ParentID != "" {
			continue
		}
		fmt.Fprintf(&b, "    %s\n", nodeDef(n))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "    %s %s %s\n", e.Source, connectorFor(e), e.Target)
	}
	return b.String()
}

func nodeDef(n diagram.Node) string {
	delim, ok := shapeSyntax[n.Shape]
	if !ok {
		if n.Label == n.ID {
			return n.ID
		}
		delim = shapeSyntax[diagram.ShapeSquare]
	}
	return fmt.Sprintf("%s%s\"%s\"%s", n.ID, delim[0], escapeLabel(n.Label), delim[1])
}

func connectorFor(e diagram.Edge) string {
	var link string
	switch {
	case e.Stroke == diagram.StrokeDotted && e.Directed:
		link = "-.->"
	case e.Stroke == diagram.StrokeDotted:
		link = "-.-"
	case e.Stroke == diagram.StrokeThick && e.Directed:
		link = "==>"
	case e.Stroke == diagram.StrokeThick:
		link = "==="
	case e.Directed:
		link = "-->"
	default:
		link = "---"
	}
	if e.Label != "" {
		link += "|" + strings.ReplaceAll(escapeLabel(e.Label), "|", "#124;") + "|"
	}
	return link
}

// escapeLabel encodes characters that would end a quoted label.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
