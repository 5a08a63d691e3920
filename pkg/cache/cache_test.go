package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a nil miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestSourceHashLineEndings(t *testing.T) {
	lf := SourceHash("A --> B\nB --> C\n")
	tests := []struct {
		name string
		src  string
		same bool
	}{
		{"CRLF", "A --> B\r\nB --> C\r\n", true},
		{"CR", "A --> B\rB --> C\r", true},
		{"Mixed", "A --> B\r\nB --> C\n", true},
		{"DifferentText", "A --> B\nB --> D\n", false},
		{"ExtraBlankLine", "A --> B\n\nB --> C\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceHash(tt.src) == lf; got != tt.same {
				t.Errorf("SourceHash(%q) == LF hash: %v, want %v", tt.src, got, tt.same)
			}
		})
	}
}

func TestHashKeyPrefix(t *testing.T) {
	k := hashKey("graph", 1, "abc")
	if !strings.HasPrefix(k, "graph:") || len(k) != len("graph:")+64 {
		t.Errorf("hashKey = %q", k)
	}
	if k == hashKey("layout", 1, "abc") {
		t.Error("kind should change the key")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	gk1 := k.GraphKey("src", GraphKeyOpts{GroupTypeOverride: true})
	gk2 := k.GraphKey("src", GraphKeyOpts{GroupTypeOverride: true, ForceFallback: true})
	if gk1 == gk2 {
		t.Error("Different GraphKeyOpts should produce different keys")
	}
	if gk1 != k.GraphKey("src", GraphKeyOpts{GroupTypeOverride: true}) {
		t.Error("GraphKey should be deterministic")
	}
	if !strings.HasPrefix(gk1, "graph:") {
		t.Errorf("GraphKey = %s, want graph: prefix", gk1)
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Direction: "TB", Engine: "sugiyama"})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Direction: "LR", Engine: "sugiyama"})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey = %s, want layout: prefix", lk1)
	}

	if k.GraphKey("h", GraphKeyOpts{}) == k.LayoutKey("h", LayoutKeyOpts{}) {
		t.Error("graph and layout keys must not collide")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "staging:")

	opts := GraphKeyOpts{GroupTypeOverride: true}
	if got, want := scoped.GraphKey("src", opts), "staging:"+inner.GraphKey("src", opts); got != want {
		t.Errorf("GraphKey = %s, want %s", got, want)
	}
	lopts := LayoutKeyOpts{Direction: "TB"}
	if got, want := scoped.LayoutKey("g", lopts), "staging:"+inner.LayoutKey("g", lopts); got != want {
		t.Errorf("LayoutKey = %s, want %s", got, want)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.GraphKey("src", GraphKeyOpts{})
	if !strings.HasPrefix(key, "prefix:graph:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestWaitForBackend(t *testing.T) {
	defer func(d time.Duration) { pingDelay = d }(pingDelay)
	pingDelay = time.Millisecond
	refused := errors.New("connection refused")

	tests := []struct {
		name      string
		failFirst int
		wantCalls int
		wantErr   bool
	}{
		{name: "Up", failFirst: 0, wantCalls: 1},
		{name: "SlowStart", failFirst: 2, wantCalls: 3},
		{name: "Down", failFirst: 10, wantCalls: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := waitForBackend(context.Background(), BackendRedis, "localhost:6379", func(context.Context) error {
				calls++
				if calls <= tt.failFirst {
					return refused
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}

			var be *BackendError
			if !errors.As(err, &be) || be.Backend != BackendRedis || be.Attempts != 3 {
				t.Errorf("err = %#v", err)
			}
			if !errors.Is(err, ErrNetwork) || !errors.Is(err, refused) {
				t.Errorf("err %v should match ErrNetwork and the ping error", err)
			}
			if !strings.Contains(err.Error(), "localhost:6379") {
				t.Errorf("message %q missing target", err.Error())
			}
		})
	}
}

func TestWaitForBackendContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := waitForBackend(ctx, BackendMongo, "stackflow.cache", func(context.Context) error {
		calls++
		return errors.New("server selection timeout")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Config{Backend: BackendNone})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("none backend = %T, want NullCache", c)
	}

	dir := t.TempDir()
	c, err = Open(ctx, Config{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := c.(*FileCache)
	if !ok || fc.Dir() != dir {
		t.Errorf("default backend = %T, want FileCache in %s", c, dir)
	}

	c, err = Open(ctx, Config{Backend: "memcached"})
	if !errors.Is(err, ErrUnknownBackend) || c != nil {
		t.Errorf("Open(memcached) = %v, %v; want ErrUnknownBackend", c, err)
	}
}
