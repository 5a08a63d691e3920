// Package pipeline provides the compile → layout pipeline shared by the CLI
// and the HTTP server.
//
// Centralizing the stages here keeps caching, validation and defaults
// identical for every entry point.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Compile: turn flowchart text into the canonical graph, falling back to
//     the heuristic parser when the grammar rejects the input
//  2. Layout: position every node, group by group
//
// Each stage can be run on its own or through [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, src, pipeline.Options{Direction: "LR"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(result.Layout.Nodes))
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackflow/pkg/cache"
	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/errors"
	"github.com/matzehuels/stackflow/pkg/layout"
	"github.com/matzehuels/stackflow/pkg/parser"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultEngine is the placement engine used when none is requested.
	DefaultEngine = layout.DefaultEngine

	// DefaultNodeSpacing is the gap between nodes of one rank, in pixels.
	DefaultNodeSpacing = layout.DefaultNodeSpacing

	// DefaultRankSpacing is the gap between ranks, in pixels.
	DefaultRankSpacing = layout.DefaultRankSpacing
)

// ValidEngines is the set of supported placement engines.
var ValidEngines = map[string]bool{
	layout.EngineSugiyama: true,
	layout.EngineGraphviz: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline. It doubles as the
// JSON request body of the HTTP server.
type Options struct {
	// Compile options
	ForceFallback       bool     `json:"force_fallback,omitempty"`
	NoGroupTypeOverride bool     `json:"no_group_type_override,omitempty"`
	Palette             []string `json:"palette,omitempty"`

	// Layout options. An empty Direction keeps the direction declared in
	// the source. Nil spacing selects the default; zero is honored.
	Direction        string   `json:"direction,omitempty"`
	NodeSpacing      *float64 `json:"node_spacing,omitempty"`
	RankSpacing      *float64 `json:"rank_spacing,omitempty"`
	Engine           string   `json:"engine,omitempty"`
	NoOverlapResolve bool     `json:"no_overlap_resolve,omitempty"`

	// Refresh bypasses cached results and overwrites them.
	Refresh bool `json:"refresh,omitempty"`

	// SourcePath is recorded in layout documents.
	SourcePath string `json:"source_path,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the compiled graph.
	Graph diagram.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Path is the parser route that produced the graph.
	Path parser.Path

	// FallbackReason is why the grammar result was rejected, if it was.
	FallbackReason string

	// Layout holds the positioned nodes.
	Layout diagram.Layout

	// Overlap is the resolver report for flat layouts.
	Overlap *layout.Report

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount      int           `json:"node_count"`
	EdgeCount      int           `json:"edge_count"`
	DroppedEdges   int           `json:"dropped_edges"`
	InvalidRecords int           `json:"invalid_records"`
	Unplaced       int           `json:"unplaced"`
	CompileTime    time.Duration `json:"compile_ns"`
	LayoutTime     time.Duration `json:"layout_ns"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CompileHit bool `json:"compile_hit"` // Whether the graph came from cache
	LayoutHit  bool `json:"layout_hit"`  // Whether the layout came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateDirection checks that dir is empty or a known direction.
func ValidateDirection(dir string) error {
	if dir == "" {
		return nil
	}
	if _, ok := diagram.ParseDirection(dir); !ok {
		return errors.New(errors.ErrCodeInvalidDirection, "invalid direction: %q (must be one of: TB, TD, BT, LR, RL)", dir)
	}
	return nil
}

// ValidateEngine checks that engine is a supported placement engine.
func ValidateEngine(engine string) error {
	if !ValidEngines[engine] {
		return errors.New(errors.ErrCodeInvalidEngine, "invalid engine: %q (must be one of: sugiyama, graphviz)", engine)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetCompileDefaults()
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetCompileDefaults sets default values for compilation.
func (o *Options) SetCompileDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.NodeSpacing == nil {
		o.NodeSpacing = layout.Spacing(DefaultNodeSpacing)
	}
	if o.RankSpacing == nil {
		o.RankSpacing = layout.Spacing(DefaultRankSpacing)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
// The direction is normalized, so "td" becomes "TB".
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateDirection(o.Direction); err != nil {
		return err
	}
	if o.Direction != "" {
		d, _ := diagram.ParseDirection(o.Direction)
		o.Direction = string(d)
	}
	if *o.NodeSpacing < 0 || *o.RankSpacing < 0 {
		return errors.New(errors.ErrCodeInvalidSpacing, "spacing must not be negative (node=%g, rank=%g)", *o.NodeSpacing, *o.RankSpacing)
	}
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	if o.SourcePath != "" {
		return errors.ValidatePath(o.SourcePath)
	}
	return nil
}

// CompilerOptions returns the parser options for these settings.
func (o *Options) CompilerOptions() []parser.Option {
	bo := parser.DefaultBuilderOptions()
	bo.GroupTypeOverride = !o.NoGroupTypeOverride
	if len(o.Palette) > 0 {
		bo.Palette = diagram.Palette(o.Palette)
	}
	bo.Logger = o.Logger

	opts := []parser.Option{parser.WithLogger(o.Logger), parser.WithBuilderOptions(bo)}
	if o.ForceFallback {
		opts = append(opts, parser.ForceFallback())
	}
	return opts
}

// LayoutConfig returns the layout engine configuration for these settings.
func (o *Options) LayoutConfig() layout.Config {
	cfg := layout.DefaultConfig()
	cfg.Direction = diagram.Direction(o.Direction)
	if o.NodeSpacing != nil {
		cfg.NodeSpacing = layout.Spacing(*o.NodeSpacing)
	}
	if o.RankSpacing != nil {
		cfg.RankSpacing = layout.Spacing(*o.RankSpacing)
	}
	cfg.Engine = o.Engine
	cfg.SkipOverlapResolve = o.NoOverlapResolve
	cfg.Logger = o.Logger
	return cfg
}

// GraphKeyOpts returns cache key options for compilation.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		ForceFallback:     o.ForceFallback,
		GroupTypeOverride: !o.NoGroupTypeOverride,
		Palette:           o.Palette,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Direction:       o.Direction,
		NodeSpacing:     spacingOr(o.NodeSpacing, DefaultNodeSpacing),
		RankSpacing:     spacingOr(o.RankSpacing, DefaultRankSpacing),
		Engine:          o.Engine,
		ResolveOverlaps: !o.NoOverlapResolve,
	}
}

func spacingOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
