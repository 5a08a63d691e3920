package parser

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/parser/grammar"
	"github.com/matzehuels/stackflow/pkg/parser/raw"
)

// Grammar is the primary interpreter of preprocessed diagram text. It either
// returns records or fails; the compiler treats any failure as a reason to
// fall back, never as a result.
type Grammar interface {
	Interpret(ctx context.Context, src string) (raw.Interpretation, error)
}

// Path records which route produced a graph.
type Path string

const (
	PathEmpty    Path = "empty"
	PathGrammar  Path = "grammar"
	PathFallback Path = "fallback"
)

// Result is the outcome of one compilation.
type Result struct {
	Graph diagram.Graph
	Path  Path

	// FallbackReason is the grammar or builder error that caused the
	// fallback, or "" when the grammar result was used.
	FallbackReason string

	DroppedEdges   int
	InvalidRecords int
}

// Compiler turns diagram source into the canonical graph. It holds only
// configuration and is safe for concurrent use.
type Compiler struct {
	grammar       Grammar
	fallback      *Fallback
	builder       *Builder
	logger        *log.Logger
	forceFallback bool
	builderOpts   BuilderOptions
}

// Option configures a [Compiler].
type Option func(*Compiler)

// WithGrammar replaces the primary grammar.
func WithGrammar(g Grammar) Option {
	return func(c *Compiler) { c.grammar = g }
}

// WithLogger sets the logger used for fallback and dropped-edge diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithPalette sets the group color palette.
func WithPalette(p diagram.Palette) Option {
	return func(c *Compiler) { c.builderOpts.Palette = p }
}

// WithBuilderOptions replaces all graph construction options.
func WithBuilderOptions(o BuilderOptions) Option {
	return func(c *Compiler) { c.builderOpts = o }
}

// ForceFallback skips the grammar and always uses the heuristic parser.
func ForceFallback() Option {
	return func(c *Compiler) { c.forceFallback = true }
}

// NewCompiler returns a compiler using the built-in grammar unless
// [WithGrammar] says otherwise.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		grammar:     grammar.Interpreter{},
		builderOpts: DefaultBuilderOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if c.builderOpts.Logger == nil {
		c.builderOpts.Logger = c.logger
	}
	c.builder = NewBuilder(c.builderOpts)
	c.fallback = NewFallback(c.logger)
	return c
}

// Compile parses src into a graph.
//
// Malformed diagrams never produce an error: a grammar failure, or a grammar
// result with edges but no nodes, is answered by the heuristic parser. The
// only error is ctx's, when it is done before parsing finishes. Empty or
// whitespace-only input yields an empty graph.
func (c *Compiler) Compile(ctx context.Context, src string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	empty := &Result{
		Graph: diagram.Graph{Nodes: []diagram.Node{}, Edges: []diagram.Edge{}},
		Path:  PathEmpty,
	}
	if strings.TrimSpace(src) == "" {
		return empty, nil
	}

	md := ExtractMetadata(src)
	pre := Preprocess(src)
	if pre.Text == "" {
		empty.Graph.Direction = pre.Direction
		return empty, nil
	}

	res, gerr := c.viaGrammar(ctx, pre)
	if gerr != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.logger.Debug("falling back to heuristic parser", "reason", gerr)
		var err error
		if res, err = c.viaFallback(ctx, pre); err != nil {
			return nil, err
		}
		res.FallbackReason = gerr.Error()
	}

	res.Graph.Nodes = attachMetadata(res.Graph.Nodes, md)
	return res, nil
}

func (c *Compiler) viaGrammar(ctx context.Context, pre Source) (*Result, error) {
	if c.forceFallback {
		return nil, errForced
	}
	in, err := c.grammar.Interpret(ctx, pre.Text)
	if err != nil {
		return nil, err
	}
	dir := pre.Direction
	if d, ok := in.(directed); ok && dir == "" {
		dir = d.FlowDirection()
	}
	built, err := c.builder.Build(in, dir)
	if err != nil {
		return nil, err
	}
	return newResult(built, PathGrammar), nil
}

func (c *Compiler) viaFallback(ctx context.Context, pre Source) (*Result, error) {
	in, err := c.fallback.Interpret(ctx, pre.Text)
	if err != nil {
		return nil, err
	}
	built, err := c.builder.Build(in, pre.Direction)
	if errors.Is(err, ErrStructural) {
		c.logger.Debug("fallback produced edges without nodes")
		return &Result{
			Graph: diagram.Graph{Direction: pre.Direction, Nodes: []diagram.Node{}, Edges: []diagram.Edge{}},
			Path:  PathFallback,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return newResult(built, PathFallback), nil
}

var errForced = errors.New("fallback forced")

// directed is implemented by interpretations that read a direction from the
// statement body.
type directed interface {
	FlowDirection() diagram.Direction
}

func newResult(b BuildResult, p Path) *Result {
	g := b.Graph
	if g.Nodes == nil {
		g.Nodes = []diagram.Node{}
	}
	if g.Edges == nil {
		g.Edges = []diagram.Edge{}
	}
	return &Result{
		Graph:          g,
		Path:           p,
		DroppedEdges:   b.DroppedEdges,
		InvalidRecords: b.InvalidRecords,
	}
}

// Compile parses src with a default [Compiler].
func Compile(ctx context.Context, src string) (*Result, error) {
	return NewCompiler().Compile(ctx, src)
}
