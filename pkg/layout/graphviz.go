package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

// pointsPerInch converts pixel footprints to Graphviz inches. Positions come
// back in points, which map 1:1 to pixels.
const pointsPerInch = 72.0

// Graphviz places boxes with the dot engine running in-process.
//
// Boxes are emitted as fixed-size nodes named n0, n1, ... so ids never need
// quoting. The attributed DOT output is scanned for node centers, which are
// flipped to y-down and shifted to top-left corners.
type Graphviz struct{}

// Place implements [Placer].
func (Graphviz) Place(ctx context.Context, boxes []Box, links []Link, cfg Config) (map[string]Point, error) {
	if len(boxes) == 0 {
		return map[string]Point{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(ToDOT(boxes, links, cfg)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return parsePositions(buf.Bytes(), boxes)
}

// ToDOT renders the placement input as a DOT digraph.
func ToDOT(boxes []Box, links []Link, cfg Config) string {
	dir := cfg.Direction
	if dir == "" {
		dir = diagram.DirectionTB
	}
	names := make(map[string]string, len(boxes))

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	fmt.Fprintf(&buf, "  nodesep=%.4f;\n", cfg.nodeSpacing()/pointsPerInch)
	fmt.Fprintf(&buf, "  ranksep=%.4f;\n", cfg.rankSpacing()/pointsPerInch)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n\n")

	for i, b := range boxes {
		name := "n" + strconv.Itoa(i)
		names[b.ID] = name
		fmt.Fprintf(&buf, "  %s [width=%.4f, height=%.4f];\n", name, b.Width/pointsPerInch, b.Height/pointsPerInch)
	}

	buf.WriteString("\n")
	for _, l := range links {
		src, okS := names[l.Source]
		dst, okD := names[l.Target]
		if !okS || !okD {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", src, dst)
	}

	buf.WriteString("}\n")
	return buf.String()
}

var (
	nodeStmtRe = regexp.MustCompile(`(?m)^\s*(n\d+)\s*\[([^\]]*)\]`)
	posRe      = regexp.MustCompile(`\bpos="(-?[0-9.]+),(-?[0-9.]+)"`)
	bbRe       = regexp.MustCompile(`\bbb="(-?[0-9.]+),(-?[0-9.]+),(-?[0-9.]+),(-?[0-9.]+)"`)
)

func parsePositions(out []byte, boxes []Box) (map[string]Point, error) {
	bb := bbRe.FindSubmatch(out)
	if bb == nil {
		return nil, fmt.Errorf("graphviz output has no bounding box")
	}
	top, err := strconv.ParseFloat(string(bb[4]), 64)
	if err != nil {
		return nil, fmt.Errorf("parse bounding box: %w", err)
	}

	byName := make(map[string]Box, len(boxes))
	for i, b := range boxes {
		byName["n"+strconv.Itoa(i)] = b
	}

	points := make(map[string]Point, len(boxes))
	for _, m := range nodeStmtRe.FindAllSubmatch(out, -1) {
		b, ok := byName[string(m[1])]
		if !ok {
			continue
		}
		pos := posRe.FindSubmatch(m[2])
		if pos == nil {
			continue
		}
		cx, errX := strconv.ParseFloat(string(pos[1]), 64)
		cy, errY := strconv.ParseFloat(string(pos[2]), 64)
		if errX != nil || errY != nil {
			continue
		}
		points[b.ID] = Point{
			X: cx - b.Width/2,
			Y: top - cy - b.Height/2,
		}
	}
	return points, nil
}
