package layout

import (
	"context"

	"github.com/matzehuels/stackflow/pkg/dag"
	"github.com/matzehuels/stackflow/pkg/dag/transform"
	"github.com/matzehuels/stackflow/pkg/diagram"
)

// Sugiyama is the pure Go layered placer.
//
// It layers the boxes with [transform.Layer], then packs each rank along the
// cross axis with NodeSpacing between neighbors and centers every rank on
// the widest one. Ranks are RankSpacing apart and as thick as their largest
// box; boxes are centered within their rank. BT and RL mirror the rank axis.
type Sugiyama struct{}

// Place implements [Placer].
func (Sugiyama) Place(ctx context.Context, boxes []Box, links []Link, cfg Config) (map[string]Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := dag.New()
	for _, b := range boxes {
		if err := g.AddNode(dag.Node{ID: b.ID, Width: b.Width, Height: b.Height}); err != nil {
			return nil, err
		}
	}
	for _, l := range links {
		if l.Source == l.Target || g.HasEdge(l.Source, l.Target) {
			continue
		}
		if _, ok := g.Node(l.Source); !ok {
			continue
		}
		if _, ok := g.Node(l.Target); !ok {
			continue
		}
		if err := g.AddEdge(dag.Edge{From: l.Source, To: l.Target}); err != nil {
			return nil, err
		}
	}

	orders := transform.Layer(g)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := cfg.Direction
	if dir == "" {
		dir = diagram.DirectionTB
	}
	horizontal := dir.Horizontal()
	along := func(n *dag.Node) float64 { // extent on the rank axis
		if horizontal {
			return n.Width
		}
		return n.Height
	}
	across := func(n *dag.Node) float64 {
		if horizontal {
			return n.Height
		}
		return n.Width
	}

	rows := g.RowIDs()
	thickness := make([]float64, len(rows))
	length := make([]float64, len(rows))
	var widest float64
	for k, r := range rows {
		for i, id := range orders[r] {
			n, _ := g.Node(id)
			thickness[k] = max(thickness[k], along(n))
			length[k] += across(n)
			if i > 0 {
				length[k] += cfg.nodeSpacing()
			}
		}
		widest = max(widest, length[k])
	}

	rankPos := make([]float64, len(rows))
	var total float64
	for k := range rows {
		rankPos[k] = total
		total += thickness[k]
		if k < len(rows)-1 {
			total += cfg.rankSpacing()
		}
	}

	out := make(map[string]Point, len(boxes))
	for k, r := range rows {
		cursor := (widest - length[k]) / 2
		for _, id := range orders[r] {
			n, _ := g.Node(id)
			at := rankPos[k] + (thickness[k]-along(n))/2
			if dir.Reversed() {
				at = total - at - along(n)
			}
			cross := cursor
			cursor += across(n) + cfg.nodeSpacing()
			if n.IsSubdivider() {
				continue
			}
			if horizontal {
				out[id] = Point{X: at, Y: cross}
			} else {
				out[id] = Point{X: cross, Y: at}
			}
		}
	}
	return out, nil
}
