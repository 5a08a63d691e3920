package layout

import (
	"slices"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

// OverlapOptions tunes [ResolveOverlaps].
type OverlapOptions struct {
	// MaxPasses caps the number of full pairwise passes.
	MaxPasses int
	// Padding is the clearance two nodes must keep on each axis.
	Padding float64
	// PushMargin is added to each node's half of a push.
	PushMargin float64
	// Margin is the page margin enforced after the passes.
	Margin float64
}

// DefaultOverlapOptions returns the resolver defaults.
func DefaultOverlapOptions() OverlapOptions {
	return OverlapOptions{
		MaxPasses:  50,
		Padding:    20,
		PushMargin: 1,
		Margin:     Margin,
	}
}

// SetDefaults fills zero fields from [DefaultOverlapOptions].
func (o *OverlapOptions) SetDefaults() {
	d := DefaultOverlapOptions()
	if o.MaxPasses <= 0 {
		o.MaxPasses = d.MaxPasses
	}
	if o.Padding == 0 {
		o.Padding = d.Padding
	}
	if o.PushMargin == 0 {
		o.PushMargin = d.PushMargin
	}
	if o.Margin == 0 {
		o.Margin = d.Margin
	}
}

// Report describes a resolver run.
type Report struct {
	// Passes is the number of passes executed.
	Passes int `json:"passes"`
	// Converged is true when no pair of nodes overlaps after the run.
	Converged bool `json:"converged"`
}

// ResolveOverlaps pushes colliding nodes apart and returns a new slice; the
// input is not modified.
//
// Two non-group nodes collide when their extents, grown by Padding, overlap
// on both axes. A colliding pair is separated along the axis needing the
// smaller displacement; each node moves half the overlap plus PushMargin,
// away from the other. Passes stop early once nothing collides. Finally,
// if any node sits left of or above the margin, the whole layout is
// translated so its minimum coordinates equal the margin.
func ResolveOverlaps(nodes []diagram.PositionedNode, opts OverlapOptions) ([]diagram.PositionedNode, Report) {
	opts.SetDefaults()
	out := slices.Clone(nodes)

	var rep Report
	for pass := 1; pass <= opts.MaxPasses; pass++ {
		rep.Passes = pass
		moved := false
		for i := range out {
			if out[i].IsGroup() {
				continue
			}
			for j := i + 1; j < len(out); j++ {
				if out[j].IsGroup() {
					continue
				}
				if push(&out[i], &out[j], opts) {
					moved = true
				}
			}
		}
		if !moved {
			break
		}
	}
	rep.Converged = CountOverlaps(out, opts.Padding) == 0

	return normalizeMargin(out, opts.Margin), rep
}

// CountOverlaps returns the number of colliding non-group pairs.
func CountOverlaps(nodes []diagram.PositionedNode, padding float64) int {
	n := 0
	for i := range nodes {
		if nodes[i].IsGroup() {
			continue
		}
		for j := i + 1; j < len(nodes); j++ {
			if nodes[j].IsGroup() {
				continue
			}
			ox, oy := overlap(nodes[i], nodes[j], padding)
			if ox > 0 && oy > 0 {
				n++
			}
		}
	}
	return n
}

func overlap(a, b diagram.PositionedNode, padding float64) (x, y float64) {
	x = min(a.Right(), b.Right()) - max(a.X, b.X) + padding
	y = min(a.Bottom(), b.Bottom()) - max(a.Y, b.Y) + padding
	return x, y
}

func push(a, b *diagram.PositionedNode, opts OverlapOptions) bool {
	ox, oy := overlap(*a, *b, opts.Padding)
	if ox <= 0 || oy <= 0 {
		return false
	}
	if ox <= oy {
		d := ox/2 + opts.PushMargin
		if a.CenterX() <= b.CenterX() {
			a.X, b.X = a.X-d, b.X+d
		} else {
			a.X, b.X = a.X+d, b.X-d
		}
		return true
	}
	d := oy/2 + opts.PushMargin
	if a.CenterY() <= b.CenterY() {
		a.Y, b.Y = a.Y-d, b.Y+d
	} else {
		a.Y, b.Y = a.Y+d, b.Y-d
	}
	return true
}

func normalizeMargin(nodes []diagram.PositionedNode, margin float64) []diagram.PositionedNode {
	if len(nodes) == 0 {
		return nodes
	}
	minX, minY := nodes[0].X, nodes[0].Y
	for _, n := range nodes[1:] {
		minX = min(minX, n.X)
		minY = min(minY, n.Y)
	}
	if minX >= margin && minY >= margin {
		return nodes
	}
	dx, dy := margin-minX, margin-minY
	for i := range nodes {
		nodes[i].X += dx
		nodes[i].Y += dy
	}
	return nodes
}
