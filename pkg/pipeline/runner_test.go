package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stackflow/pkg/cache"
	"github.com/matzehuels/stackflow/pkg/errors"
	"github.com/matzehuels/stackflow/pkg/observability"
	"github.com/matzehuels/stackflow/pkg/parser"
)

const simpleFlow = "flowchart TD\n    A[Start] --> B[End]"

const groupedFlow = `flowchart LR
    subgraph api
        G[Gateway] --> S[Service]
    end
    S --> D[(Orders DB)]`

// memCache is an in-memory cache that counts writes.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), simpleFlow, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != parser.PathGrammar || res.FallbackReason != "" {
		t.Errorf("Path = %q, FallbackReason = %q", res.Path, res.FallbackReason)
	}
	if res.Stats.NodeCount != 2 || res.Stats.EdgeCount != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if len(res.Layout.Nodes) != 2 || len(res.Layout.Edges) != 1 {
		t.Errorf("layout has %d nodes, %d edges", len(res.Layout.Nodes), len(res.Layout.Edges))
	}
	if res.Overlap == nil || !res.Overlap.Converged {
		t.Errorf("Overlap = %+v, want converged report", res.Overlap)
	}
	if len(res.GraphHash) != 64 {
		t.Errorf("GraphHash = %q", res.GraphHash)
	}
	if res.CacheInfo.CompileHit || res.CacheInfo.LayoutHit {
		t.Errorf("NullCache produced hits: %+v", res.CacheInfo)
	}
}

func TestExecuteCaches(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, err := r.Execute(ctx, groupedFlow, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.sets != 2 {
		t.Errorf("cache writes = %d, want 2", c.sets)
	}

	second, err := r.Execute(ctx, groupedFlow, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.CompileHit || !second.CacheInfo.LayoutHit {
		t.Errorf("CacheInfo = %+v, want both hits", second.CacheInfo)
	}
	if second.GraphHash != first.GraphHash || second.Path != first.Path {
		t.Errorf("cached compile differs: %s/%s vs %s/%s", second.GraphHash, second.Path, first.GraphHash, first.Path)
	}
	a, _ := json.Marshal(first.Layout)
	b, _ := json.Marshal(second.Layout)
	if string(a) != string(b) {
		t.Errorf("cached layout differs:\n%s\n%s", a, b)
	}

	// A new direction reuses the graph but not the layout.
	third, err := r.Execute(ctx, groupedFlow, Options{Direction: "TB"})
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.CompileHit || third.CacheInfo.LayoutHit {
		t.Errorf("CacheInfo = %+v, want compile hit and layout miss", third.CacheInfo)
	}

	// Refresh recomputes and rewrites.
	sets := c.sets
	fourth, err := r.Execute(ctx, groupedFlow, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.CompileHit || fourth.CacheInfo.LayoutHit || c.sets != sets+2 {
		t.Errorf("refresh: CacheInfo = %+v, writes = %d", fourth.CacheInfo, c.sets-sets)
	}
}

func TestExecuteCorruptCacheEntry(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	if _, err := r.Execute(ctx, simpleFlow, Options{}); err != nil {
		t.Fatal(err)
	}
	for k := range c.data {
		c.data[k] = []byte("{garbage")
	}
	res, err := r.Execute(ctx, simpleFlow, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.CompileHit || res.CacheInfo.LayoutHit {
		t.Errorf("corrupt entries served as hits: %+v", res.CacheInfo)
	}
	if res.Stats.NodeCount != 2 {
		t.Errorf("NodeCount = %d", res.Stats.NodeCount)
	}
}

func TestExecuteForceFallback(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), simpleFlow, Options{ForceFallback: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != parser.PathFallback {
		t.Errorf("Path = %q, want fallback", res.Path)
	}
	if res.Stats.NodeCount != 2 {
		t.Errorf("NodeCount = %d, want 2", res.Stats.NodeCount)
	}
}

func TestExecuteGrouped(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), groupedFlow, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Overlap != nil {
		t.Error("grouped layouts should not run the overlap resolver")
	}
	grp, ok := res.Layout.Node("api")
	if !ok || !grp.IsGroup() {
		t.Fatalf("missing group api in %+v", res.Layout.Nodes)
	}
	if res.Layout.Direction != "LR" {
		t.Errorf("Direction = %q, want LR from source", res.Layout.Direction)
	}
}

func TestExecuteEmpty(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), "   ", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != parser.PathEmpty || len(res.Layout.Nodes) != 0 || res.Layout.Nodes == nil {
		t.Errorf("Path = %q, nodes = %v", res.Path, res.Layout.Nodes)
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), simpleFlow, Options{Engine: "neato"})
	if !errors.Is(err, errors.ErrCodeInvalidEngine) {
		t.Errorf("Execute() error = %v, want INVALID_ENGINE", err)
	}
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(nil, nil, nil)
	if _, err := r.Execute(ctx, simpleFlow, Options{}); err == nil || !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("Execute() error = %v, want context canceled", err)
	}
}

func TestScopedKeyerIsolation(t *testing.T) {
	c := newMemCache()
	ctx := context.Background()
	a := NewRunner(c, cache.NewScopedKeyer(nil, "a:"), nil)
	b := NewRunner(c, cache.NewScopedKeyer(nil, "b:"), nil)

	if _, err := a.Execute(ctx, simpleFlow, Options{}); err != nil {
		t.Fatal(err)
	}
	res, err := b.Execute(ctx, simpleFlow, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.CompileHit || res.CacheInfo.LayoutHit {
		t.Error("scoped runners shared cache entries")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnCompileComplete(_ context.Context, ev observability.CompileEvent) {
	h.add("compile:" + ev.Path)
}

func (h *recordingHooks) OnLayoutComplete(_ context.Context, ev observability.LayoutEvent) {
	h.add("layout:" + ev.Engine)
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string) { h.add("hit:" + keyType) }

func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) { h.add("miss:" + keyType) }

func TestRunnerHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	defer observability.Reset()

	r := NewRunner(newMemCache(), nil, nil)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := r.Execute(ctx, simpleFlow, Options{}); err != nil {
			t.Fatal(err)
		}
	}

	want := "miss:graph compile:grammar miss:layout layout:sugiyama hit:graph hit:layout"
	if got := strings.Join(h.events, " "); got != want {
		t.Errorf("events = %s\nwant     %s", got, want)
	}
}

func TestCompileCacheIgnoresLineEndings(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	if _, _, err := r.CompileWithCacheInfo(ctx, groupedFlow, Options{}); err != nil {
		t.Fatal(err)
	}
	crlf := strings.ReplaceAll(groupedFlow, "\n", "\r\n")
	res, hit, err := r.CompileWithCacheInfo(ctx, crlf, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("CRLF copy of a cached diagram should hit")
	}
	if len(res.Graph.Nodes) != 4 {
		t.Errorf("nodes = %d, want 4", len(res.Graph.Nodes))
	}
}
