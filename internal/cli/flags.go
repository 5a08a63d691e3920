package cli

import (
	"github.com/spf13/pflag"

	"github.com/matzehuels/stackflow/pkg/layout"
	"github.com/matzehuels/stackflow/pkg/pipeline"
)

// compileFlags are the parser flags shared by parse and compile.
type compileFlags struct {
	forceFallback   bool
	noGroupOverride bool
	palette         []string
}

func (f *compileFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.forceFallback, "force-fallback", false, "skip the grammar and use the heuristic parser")
	fs.BoolVar(&f.noGroupOverride, "no-group-override", false, "do not retype members of typed groups")
	fs.StringSliceVar(&f.palette, "palette", nil, "group colors, cycled in declaration order")
}

// apply copies explicitly set flags over opts.
func (f *compileFlags) apply(fs *pflag.FlagSet, opts *pipeline.Options) {
	if fs.Changed("force-fallback") {
		opts.ForceFallback = f.forceFallback
	}
	if fs.Changed("no-group-override") {
		opts.NoGroupTypeOverride = f.noGroupOverride
	}
	if fs.Changed("palette") {
		opts.Palette = f.palette
	}
}

// layoutFlags are the layout engine flags shared by layout and compile.
type layoutFlags struct {
	direction   string
	engine      string
	nodeSpacing float64
	rankSpacing float64
	noOverlap   bool
}

func (f *layoutFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.direction, "direction", "d", "", "flow direction: TB, BT, LR, RL (default: from the diagram)")
	fs.StringVarP(&f.engine, "engine", "e", pipeline.DefaultEngine, "placement engine: sugiyama, graphviz")
	fs.Float64Var(&f.nodeSpacing, "node-spacing", pipeline.DefaultNodeSpacing, "gap between nodes of one rank")
	fs.Float64Var(&f.rankSpacing, "rank-spacing", pipeline.DefaultRankSpacing, "gap between ranks")
	fs.BoolVar(&f.noOverlap, "no-overlap", false, "skip the overlap resolver on flat diagrams")
}

// apply copies explicitly set flags over opts.
func (f *layoutFlags) apply(fs *pflag.FlagSet, opts *pipeline.Options) {
	if fs.Changed("direction") {
		opts.Direction = f.direction
	}
	if fs.Changed("engine") {
		opts.Engine = f.engine
	}
	if fs.Changed("node-spacing") {
		opts.NodeSpacing = layout.Spacing(f.nodeSpacing)
	}
	if fs.Changed("rank-spacing") {
		opts.RankSpacing = layout.Spacing(f.rankSpacing)
	}
	if fs.Changed("no-overlap") {
		opts.NoOverlapResolve = f.noOverlap
	}
}
