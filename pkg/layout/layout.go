package layout

import (
	"context"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

// Result is the output of [Engine.Layout].
type Result struct {
	Layout diagram.Layout
	// Grouped is true when the group-aware path ran.
	Grouped bool
	// Overlap is the resolver report for flat layouts that ran it.
	Overlap *Report
	// Unplaced counts nodes the placer returned no position for.
	Unplaced int
}

// Engine positions canonical graphs. It is stateless apart from its
// configuration and safe for concurrent use.
type Engine struct {
	cfg    Config
	placer Placer
	logger *log.Logger
}

// New validates cfg and returns an engine using the configured placer.
func New(cfg Config) (*Engine, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	p, err := NewPlacer(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, placer: p, logger: cfg.Logger}, nil
}

// NewWithPlacer is like [New] but uses p instead of the configured engine.
func NewWithPlacer(cfg Config, p Placer) (*Engine, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	e.placer = p
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Layout positions every node of g. Edges are passed through unchanged.
//
// Without group nodes, all nodes are placed together and optionally run
// through [ResolveOverlaps]. With groups, each group is placed on its own
// internal edges and the groups are stacked top to bottom at the page
// margin, with ungrouped nodes placed to the right of the widest group.
// Members of a group get coordinates relative to the group.
//
// The only errors are context cancellation; a failing placer leaves the
// affected nodes at (0,0).
func (e *Engine) Layout(ctx context.Context, g diagram.Graph) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := e.cfg
	cfg.Direction = cfg.direction(g)

	res := &Result{Layout: diagram.Layout{
		Direction: cfg.Direction,
		Nodes:     []diagram.PositionedNode{},
		Edges:     append([]diagram.Edge{}, g.Edges...),
	}}
	if len(g.Nodes) == 0 {
		return res, nil
	}

	var err error
	if len(g.Groups()) == 0 {
		err = e.flat(ctx, g, cfg, res)
	} else {
		res.Grouped = true
		err = e.grouped(ctx, g, cfg, res)
	}
	if err != nil {
		return nil, err
	}
	e.logger.Debug("layout complete",
		"nodes", len(res.Layout.Nodes), "grouped", res.Grouped, "unplaced", res.Unplaced)
	return res, nil
}

// Layout is a convenience wrapper around [New] and [Engine.Layout].
func Layout(ctx context.Context, g diagram.Graph, cfg Config) (*Result, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return e.Layout(ctx, g)
}

// =============================================================================
// Flat path
// =============================================================================

func (e *Engine) flat(ctx context.Context, g diagram.Graph, cfg Config, res *Result) error {
	var nodes []diagram.Node
	for _, n := range g.Nodes {
		if !n.IsGroup() {
			nodes = append(nodes, n)
		}
	}
	placed, missing, err := e.place(ctx, nodes, g.Edges, cfg)
	if err != nil {
		return err
	}
	res.Unplaced += len(missing)

	if !cfg.SkipOverlapResolve {
		var rep Report
		placed, rep = ResolveOverlaps(placed, cfg.Overlap)
		res.Overlap = &rep
		if !rep.Converged {
			e.logger.Debug("overlap resolver hit pass cap", "passes", rep.Passes)
		}
	}
	res.Layout.Nodes = placed
	return nil
}

// =============================================================================
// Grouped path
// =============================================================================

func (e *Engine) grouped(ctx context.Context, g diagram.Graph, cfg Config, res *Result) error {
	groups := g.Groups()
	isGroup := make(map[string]bool, len(groups))
	for _, grp := range groups {
		isGroup[grp.ID] = true
	}

	var orphans []diagram.Node
	for _, n := range g.Nodes {
		if !n.IsGroup() && !isGroup[n.ParentID] {
			orphans = append(orphans, n)
		}
	}

	out := make([]diagram.PositionedNode, 0, len(g.Nodes))
	cursor, widest := Margin, 0.0
	for _, grp := range groups {
		members := g.Members(grp.ID)
		box := diagram.PositionedNode{Node: grp, X: Margin, Y: cursor}

		if len(members) == 0 {
			box.Width, box.Height = EmptyGroupWidth, EmptyGroupHeight
			out = append(out, box)
			cursor += box.Height + GroupGap
			widest = max(widest, box.Width)
			continue
		}

		placed, missing, err := e.place(ctx, members, g.Edges, cfg)
		if err != nil {
			return err
		}
		res.Unplaced += len(missing)

		local, w, h := fitToGroup(placed, missing)
		box.Width, box.Height = w, h
		out = append(out, box)
		out = append(out, local...)
		cursor += h + GroupGap
		widest = max(widest, w)
	}

	if len(orphans) > 0 {
		placed, missing, err := e.place(ctx, orphans, g.Edges, cfg)
		if err != nil {
			return err
		}
		res.Unplaced += len(missing)
		out = append(out, translateTo(placed, missing, Margin+widest+OrphanGap, Margin)...)
	}

	res.Layout.Nodes = out
	return nil
}

// fitToGroup moves placed members so their bounding box starts at the group
// padding below the title bar, and returns the group size. Unplaced members
// keep their placeholder position and do not count toward the bounding box.
func fitToGroup(placed []diagram.PositionedNode, skip map[string]bool) ([]diagram.PositionedNode, float64, float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range placed {
		if skip[n.ID] {
			continue
		}
		minX, minY = min(minX, n.X), min(minY, n.Y)
		maxX, maxY = max(maxX, n.Right()), max(maxY, n.Bottom())
	}
	if math.IsInf(minX, 1) {
		return placed, EmptyGroupWidth, EmptyGroupHeight
	}

	out := make([]diagram.PositionedNode, len(placed))
	for i, n := range placed {
		if !skip[n.ID] {
			n.X = n.X - minX + GroupPadding
			n.Y = n.Y - minY + GroupPadding + TitleBarHeight
		}
		out[i] = n
	}
	w := (maxX - minX) + 2*GroupPadding
	h := (maxY - minY) + 2*GroupPadding + TitleBarHeight
	return out, w, h
}

// translateTo shifts placed nodes so their minimum corner sits at (x, y).
// Unplaced nodes keep their placeholder position.
func translateTo(nodes []diagram.PositionedNode, skip map[string]bool, x, y float64) []diagram.PositionedNode {
	minX, minY := math.Inf(1), math.Inf(1)
	for _, n := range nodes {
		if !skip[n.ID] {
			minX, minY = min(minX, n.X), min(minY, n.Y)
		}
	}
	out := make([]diagram.PositionedNode, len(nodes))
	for i, n := range nodes {
		if !skip[n.ID] {
			n.X += x - minX
			n.Y += y - minY
		}
		out[i] = n
	}
	return out
}

// =============================================================================
// Placement
// =============================================================================

// place runs the placer over nodes and the edges internal to them. Nodes
// without a returned position stay at (0,0) and are reported in the missing
// set. A placer error is logged and leaves every node unplaced; only a
// canceled context is returned.
func (e *Engine) place(ctx context.Context, nodes []diagram.Node, edges []diagram.Edge, cfg Config) ([]diagram.PositionedNode, map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	in := make(map[string]bool, len(nodes))
	boxes := make([]Box, len(nodes))
	for i, n := range nodes {
		in[n.ID] = true
		s := Footprint(n.Type)
		boxes[i] = Box{ID: n.ID, Width: s.Width, Height: s.Height}
	}
	var links []Link
	for _, ed := range edges {
		if in[ed.Source] && in[ed.Target] {
			links = append(links, Link{Source: ed.Source, Target: ed.Target})
		}
	}

	points, err := e.placer.Place(ctx, boxes, links, cfg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		e.logger.Debug("placement failed, keeping placeholders", "nodes", len(nodes), "error", err)
		points = nil
	}

	out := make([]diagram.PositionedNode, len(nodes))
	missing := make(map[string]bool)
	for i, n := range nodes {
		p, ok := points[n.ID]
		if !ok {
			missing[n.ID] = true
		}
		out[i] = diagram.PositionedNode{
			Node:   n,
			X:      p.X,
			Y:      p.Y,
			Width:  boxes[i].Width,
			Height: boxes[i].Height,
		}
	}
	return out, missing, nil
}
