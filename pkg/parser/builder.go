package parser

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/parser/raw"
)

// ErrStructural is returned by [Builder.Build] when a parse produced edges but
// no non-group nodes. It means the parser misread node declarations, and the
// compiler answers it by falling back to the heuristic parser.
var ErrStructural = errors.New("structural inconsistency: edges without nodes")

// BuilderOptions configures graph construction.
type BuilderOptions struct {
	// Rules is the type classifier's rule list. Nil means diagram.DefaultRules.
	Rules []diagram.Rule

	// Palette colors groups by declaration order. Nil means
	// diagram.DefaultPalette.
	Palette diagram.Palette

	// GroupTypeOverride lets an enclosing group whose name implies client,
	// server or database rewrite the member's render type, even over an
	// explicit shape.
	GroupTypeOverride bool

	Logger *log.Logger
}

// DefaultBuilderOptions returns the options used by [NewCompiler].
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		Rules:             diagram.DefaultRules,
		Palette:           diagram.DefaultPalette,
		GroupTypeOverride: true,
	}
}

// BuildResult is a constructed graph plus what was discarded on the way.
type BuildResult struct {
	Graph diagram.Graph

	// DroppedEdges counts edges whose endpoints did not exist.
	DroppedEdges int

	// InvalidRecords counts raw records that failed validation.
	InvalidRecords int
}

// Builder turns raw parser records into the canonical model. A Builder holds
// no per-build state and may be reused.
type Builder struct {
	opts BuilderOptions
}

// NewBuilder returns a builder, filling unset options with defaults.
func NewBuilder(opts BuilderOptions) *Builder {
	if opts.Rules == nil {
		opts.Rules = diagram.DefaultRules
	}
	if opts.Palette == nil {
		opts.Palette = diagram.DefaultPalette
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Builder{opts: opts}
}

// Build normalizes an interpretation into a graph.
//
// Groups are emitted first in subgraph declaration order, followed by the
// vertices in declaration order, then the edges whose endpoints both exist.
// A node belongs to the first subgraph that lists it; subgraph ids listed as
// members are ignored, so membership is one level deep.
func (b *Builder) Build(in raw.Interpretation, dir diagram.Direction) (BuildResult, error) {
	var res BuildResult

	subgraphs, vertices, edges := b.validated(in, &res)

	groups := make(map[string]int, len(subgraphs))
	nodes := make([]diagram.Node, 0, len(subgraphs)+len(vertices))
	for _, s := range subgraphs {
		if _, dup := groups[s.ID]; dup {
			continue
		}
		label := diagram.SanitizeLabel(s.Title)
		if label == "" {
			label = s.ID
		}
		groups[s.ID] = len(nodes)
		nodes = append(nodes, diagram.Node{
			ID:       s.ID,
			Type:     diagram.TypeGroup,
			Category: diagram.CategoryGroup,
			Label:    label,
			Color:    b.opts.Palette.Color(len(nodes)),
		})
	}

	parent := make(map[string]string)
	for _, s := range subgraphs {
		for _, m := range s.Members {
			if m == s.ID {
				continue
			}
			if _, isGroup := groups[m]; isGroup {
				continue
			}
			if _, owned := parent[m]; !owned {
				parent[m] = s.ID
			}
		}
	}

	index := make(map[string]int, len(vertices))
	for _, v := range mergeVertices(vertices) {
		if _, isGroup := groups[v.ID]; isGroup {
			continue
		}
		var group *diagram.Node
		if p, ok := parent[v.ID]; ok {
			g := nodes[groups[p]]
			group = &g
		}
		index[v.ID] = len(nodes)
		nodes = append(nodes, b.node(v, group))
	}

	if len(edges) > 0 && len(index) == 0 {
		return BuildResult{}, ErrStructural
	}

	out := make([]diagram.Edge, 0, len(edges))
	for i, e := range edges {
		if !b.exists(e.Source, index, groups) || !b.exists(e.Target, index, groups) {
			res.DroppedEdges++
			b.opts.Logger.Debug("dropping dangling edge", "source", e.Source, "target", e.Target)
			continue
		}
		out = append(out, edge(i, e))
	}

	res.Graph = diagram.Graph{Direction: dir, Nodes: nodes, Edges: out}
	return res, nil
}

func (b *Builder) validated(in raw.Interpretation, res *BuildResult) ([]raw.Subgraph, []raw.Vertex, []raw.Edge) {
	var (
		subgraphs []raw.Subgraph
		vertices  []raw.Vertex
		edges     []raw.Edge
	)
	for _, s := range in.Subgraphs() {
		if err := s.Validate(); err != nil {
			res.InvalidRecords++
			b.opts.Logger.Debug("invalid subgraph record", "err", err)
			continue
		}
		subgraphs = append(subgraphs, s)
	}
	for _, v := range in.Vertices() {
		if err := v.Validate(); err != nil {
			res.InvalidRecords++
			b.opts.Logger.Debug("invalid vertex record", "err", err)
			continue
		}
		vertices = append(vertices, v)
	}
	for _, e := range in.Edges() {
		if err := e.Validate(); err != nil {
			res.InvalidRecords++
			b.opts.Logger.Debug("invalid edge record", "err", err)
			continue
		}
		edges = append(edges, e)
	}
	return subgraphs, vertices, edges
}

func (b *Builder) exists(id string, index, groups map[string]int) bool {
	if _, ok := index[id]; ok {
		return true
	}
	_, ok := groups[id]
	return ok
}

func (b *Builder) node(v raw.Vertex, group *diagram.Node) diagram.Node {
	label := diagram.SanitizeLabel(v.Text)
	if label == "" {
		label = v.ID
	}
	n := diagram.Node{
		ID:    v.ID,
		Label: label,
		Shape: v.Shape,
		Type:  diagram.TypeProcess,
	}
	if !v.Implicit {
		n.Type = diagram.ClassifyWith(b.opts.Rules, v.Shape, label)
	}
	if group != nil {
		n.ParentID = group.ID
		if b.opts.GroupTypeOverride {
			if t, ok := diagram.GroupContextType(*group); ok {
				n.Type = t
			}
		}
	}
	n.Category = diagram.InferCategory(n, group)
	return n
}

// mergeVertices collapses repeated vertex records by id, keeping the first
// position. An explicit declaration replaces an earlier implicit reference.
func mergeVertices(vs []raw.Vertex) []raw.Vertex {
	pos := make(map[string]int, len(vs))
	out := make([]raw.Vertex, 0, len(vs))
	for _, v := range vs {
		i, seen := pos[v.ID]
		if !seen {
			pos[v.ID] = len(out)
			out = append(out, v)
			continue
		}
		if out[i].Implicit && !v.Implicit {
			out[i] = v
		}
	}
	return out
}

func edge(i int, e raw.Edge) diagram.Edge {
	stroke := e.Stroke
	if stroke == "" {
		stroke = diagram.StrokeSolid
	}
	dotted := stroke == diagram.StrokeDotted
	return diagram.Edge{
		ID:       diagram.EdgeID(i, e.Source, e.Target),
		Source:   e.Source,
		Target:   e.Target,
		Label:    diagram.SanitizeLabel(e.Text),
		Stroke:   stroke,
		Dashed:   dotted,
		Animated: dotted,
		Directed: e.Directed,
	}
}
