package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackflow/pkg/cache"
	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/graph"
	"github.com/matzehuels/stackflow/pkg/layout"
	"github.com/matzehuels/stackflow/pkg/observability"
	"github.com/matzehuels/stackflow/pkg/parser"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete compile → layout pipeline with caching.
func (r *Runner) Execute(ctx context.Context, src string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Compile
	compileStart := time.Now()
	compiled, compileHit, err := r.CompileWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	result.Graph = compiled.Graph
	result.Path = compiled.Path
	result.FallbackReason = compiled.FallbackReason
	result.Stats.CompileTime = time.Since(compileStart)
	result.Stats.NodeCount = len(compiled.Graph.Nodes)
	result.Stats.EdgeCount = len(compiled.Graph.Edges)
	result.Stats.DroppedEdges = compiled.DroppedEdges
	result.Stats.InvalidRecords = compiled.InvalidRecords
	result.CacheInfo.CompileHit = compileHit
	result.GraphHash = graphHash(compiled.Graph)

	r.Logger.Info("compiled diagram",
		"path", compiled.Path,
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.CompileTime)
	if compiled.FallbackReason != "" {
		r.Logger.Warn("grammar rejected input, used heuristic parser", "reason", compiled.FallbackReason)
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	laid, layoutHit, err := r.LayoutWithCacheInfo(ctx, compiled.Graph, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = laid.Layout
	result.Overlap = laid.Overlap
	result.Stats.Unplaced = laid.Unplaced
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"nodes", len(laid.Layout.Nodes),
		"grouped", laid.Grouped,
		"duration", result.Stats.LayoutTime)
	if laid.Unplaced > 0 {
		r.Logger.Warn("some nodes could not be placed", "unplaced", laid.Unplaced)
	}

	return result, nil
}

// CompileWithCacheInfo compiles src with caching and returns cache hit info.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, src string, opts Options) (*parser.Result, bool, error) {
	r.applyLogger(&opts)
	opts.SetCompileDefaults()

	cacheKey := r.Keyer.GraphKey(cache.SourceHash(src), opts.GraphKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if res, err := unmarshalCompile(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				return res, true, nil
			}
		} else if err != nil {
			r.Logger.Debug("cache read failed", "key", cacheKey, "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	hooks := observability.Pipeline()
	hooks.OnCompileStart(ctx, len(src))
	start := time.Now()
	res, err := Compile(ctx, src, opts)
	if err != nil {
		hooks.OnCompileComplete(ctx, observability.CompileEvent{Duration: time.Since(start), Err: err})
		return nil, false, err
	}
	hooks.OnCompileComplete(ctx, observability.CompileEvent{
		Path:           string(res.Path),
		Nodes:          len(res.Graph.Nodes),
		Edges:          len(res.Graph.Edges),
		DroppedEdges:   res.DroppedEdges,
		FallbackReason: res.FallbackReason,
		Duration:       time.Since(start),
	})

	if data, err := marshalCompile(res); err == nil {
		r.store(ctx, "graph", cacheKey, data, cache.TTLGraph)
	}
	return res, false, nil
}

// Compile is a convenience wrapper that calls CompileWithCacheInfo and discards the cache hit info.
func (r *Runner) Compile(ctx context.Context, src string, opts Options) (*parser.Result, error) {
	res, _, err := r.CompileWithCacheInfo(ctx, src, opts)
	return res, err
}

// LayoutWithCacheInfo lays out g with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g diagram.Graph, opts Options) (*layout.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.LayoutKey(graphHash(g), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if res, err := unmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return res, true, nil
			}
		} else if err != nil {
			r.Logger.Debug("cache read failed", "key", cacheKey, "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Engine, len(g.Nodes))
	start := time.Now()
	res, err := ComputeLayout(ctx, g, opts)
	if err != nil {
		hooks.OnLayoutComplete(ctx, observability.LayoutEvent{Engine: opts.Engine, Nodes: len(g.Nodes), Duration: time.Since(start), Err: err})
		return nil, false, err
	}
	hooks.OnLayoutComplete(ctx, observability.LayoutEvent{
		Engine:      opts.Engine,
		Nodes:       len(g.Nodes),
		Grouped:     res.Grouped,
		Overlapping: res.Overlap != nil && !res.Overlap.Converged,
		Unplaced:    res.Unplaced,
		Duration:    time.Since(start),
	})

	if data, err := marshalLayout(res); err == nil {
		r.store(ctx, "layout", cacheKey, data, cache.TTLLayout)
	}
	return res, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g diagram.Graph, opts Options) (*layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return res, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// store writes a cache entry. Write failures are logged and dropped.
func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func graphHash(g diagram.Graph) string {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
