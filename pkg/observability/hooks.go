// Package observability lets a binary watch the compile and layout pipeline
// without the library packages depending on a metrics backend.
//
// The pipeline, the cache layer and the HTTP server report events to the
// registered hooks. The defaults do nothing. [LogHooks] turns every event
// into a debug log line and is what the CLI registers.
//
//	observability.Register(observability.NewLogHooks(logger))
//
// Libraries emit through the accessors:
//
//	observability.Pipeline().OnCompileStart(ctx, len(src))
//	observability.Pipeline().OnCompileComplete(ctx, observability.CompileEvent{...})
package observability

import (
	"context"
	"sync"
	"time"
)

// CompileEvent describes a finished compile.
type CompileEvent struct {
	// Path is the parser route: "empty", "grammar" or "fallback".
	Path           string
	Nodes          int
	Edges          int
	DroppedEdges   int
	FallbackReason string
	Duration       time.Duration
	Err            error
}

// LayoutEvent describes a finished layout.
type LayoutEvent struct {
	Engine  string
	Nodes   int
	Grouped bool
	// Overlapping is true when the resolver ran and gave up with overlaps left.
	Overlapping bool
	Unplaced    int
	Duration    time.Duration
	Err         error
}

// PipelineHooks receives events from the compile and layout stages.
type PipelineHooks interface {
	OnCompileStart(ctx context.Context, sourceBytes int)
	OnCompileComplete(ctx context.Context, ev CompileEvent)
	OnLayoutStart(ctx context.Context, engine string, nodeCount int)
	OnLayoutComplete(ctx context.Context, ev LayoutEvent)
}

// CacheHooks receives events from cache lookups. keyType is "graph" or
// "layout".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// NoopPipelineHooks, NoopCacheHooks and NoopHTTPHooks are installed by
// default and by [Reset].
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnCompileStart(context.Context, int)             {}
func (NoopPipelineHooks) OnCompileComplete(context.Context, CompileEvent) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)      {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, LayoutEvent)   {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

type registry struct {
	mu       sync.RWMutex
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var hooks = registry{
	pipeline: NoopPipelineHooks{},
	cache:    NoopCacheHooks{},
	http:     NoopHTTPHooks{},
}

// SetPipelineHooks replaces the pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if h != nil {
		hooks.pipeline = h
	}
}

// SetCacheHooks replaces the cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if h != nil {
		hooks.cache = h
	}
}

// SetHTTPHooks replaces the HTTP hooks. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if h != nil {
		hooks.http = h
	}
}

// Register installs h for every hook interface it implements.
func Register(h any) {
	if p, ok := h.(PipelineHooks); ok {
		SetPipelineHooks(p)
	}
	if c, ok := h.(CacheHooks); ok {
		SetCacheHooks(c)
	}
	if x, ok := h.(HTTPHooks); ok {
		SetHTTPHooks(x)
	}
}

func Pipeline() PipelineHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.pipeline
}

func Cache() CacheHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.cache
}

func HTTP() HTTPHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.http
}

// Reset restores the no-op hooks.
func Reset() {
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	hooks.pipeline = NoopPipelineHooks{}
	hooks.cache = NoopCacheHooks{}
	hooks.http = NoopHTTPHooks{}
}
