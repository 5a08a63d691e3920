package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every pipeline and cache event as a debug line. HTTP
// requests are already logged by the server and are left out.
type LogHooks struct {
	parent *log.Logger
}

// NewLogHooks returns hooks logging to l under the "pipeline" prefix.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{parent: l}
}

// logger derives the prefixed logger per event so that a level set on the
// parent after registration still applies.
func (h *LogHooks) logger() *log.Logger {
	return h.parent.WithPrefix("pipeline")
}

func (h *LogHooks) OnCompileStart(_ context.Context, sourceBytes int) {
	h.logger().Debug("compile start", "bytes", sourceBytes)
}

func (h *LogHooks) OnCompileComplete(_ context.Context, ev CompileEvent) {
	if ev.Err != nil {
		h.logger().Debug("compile failed", "error", ev.Err, "elapsed", ev.Duration)
		return
	}
	kv := []any{"path", ev.Path, "nodes", ev.Nodes, "edges", ev.Edges, "elapsed", ev.Duration.Round(time.Microsecond)}
	if ev.DroppedEdges > 0 {
		kv = append(kv, "dropped", ev.DroppedEdges)
	}
	if ev.FallbackReason != "" {
		kv = append(kv, "reason", ev.FallbackReason)
	}
	h.logger().Debug("compiled", kv...)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, engine string, nodeCount int) {
	h.logger().Debug("layout start", "engine", engine, "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, ev LayoutEvent) {
	if ev.Err != nil {
		h.logger().Debug("layout failed", "engine", ev.Engine, "error", ev.Err)
		return
	}
	h.logger().Debug("laid out",
		"engine", ev.Engine,
		"nodes", ev.Nodes,
		"grouped", ev.Grouped,
		"overlapping", ev.Overlapping,
		"unplaced", ev.Unplaced,
		"elapsed", ev.Duration.Round(time.Microsecond),
	)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger().Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger().Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger().Debug("cache store", "kind", keyType, "bytes", size)
}
