package pipeline

import (
	"testing"

	"github.com/matzehuels/stackflow/pkg/errors"
	"github.com/matzehuels/stackflow/pkg/layout"
)

func TestValidateDirection(t *testing.T) {
	tests := []struct {
		dir     string
		wantErr bool
	}{
		{"", false},
		{"TB", false},
		{"TD", false},
		{"td", false},
		{"BT", false},
		{"LR", false},
		{"RL", false},
		{"XY", true},
		{"top", true},
	}

	for _, tt := range tests {
		err := ValidateDirection(tt.dir)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDirection(%q) error = %v, wantErr %v", tt.dir, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidDirection) {
			t.Errorf("ValidateDirection(%q) code = %q", tt.dir, errors.GetCode(err))
		}
	}
}

func TestValidateEngine(t *testing.T) {
	tests := []struct {
		engine  string
		wantErr bool
	}{
		{"sugiyama", false},
		{"graphviz", false},
		{"neato", true},
		{"Sugiyama", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateEngine(tt.engine)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateEngine(%q) error = %v, wantErr %v", tt.engine, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Empty options should pass: %v", err)
	}
	if opts.Engine != DefaultEngine {
		t.Errorf("Engine should be %s, got %s", DefaultEngine, opts.Engine)
	}
	if *opts.NodeSpacing != DefaultNodeSpacing || *opts.RankSpacing != DefaultRankSpacing {
		t.Errorf("spacing = %v/%v", *opts.NodeSpacing, *opts.RankSpacing)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if opts.Direction != "" {
		t.Errorf("Direction should stay empty, got %q", opts.Direction)
	}
}

func TestOptionsValidateForLayout(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want errors.Code
	}{
		{"valid", Options{Direction: "LR"}, ""},
		{"bad direction", Options{Direction: "XY"}, errors.ErrCodeInvalidDirection},
		{"bad engine", Options{Engine: "neato"}, errors.ErrCodeInvalidEngine},
		{"negative spacing", Options{RankSpacing: layout.Spacing(-5)}, errors.ErrCodeInvalidSpacing},
		{"absolute source path", Options{SourcePath: "/etc/flow.mmd"}, errors.ErrCodeInvalidPath},
		{"relative source path", Options{SourcePath: "docs/flow.mmd"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLayout()
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("ValidateForLayout() code = %q, want %q (err = %v)", got, tt.want, err)
			}
		})
	}
}

func TestOptionsNormalizesDirection(t *testing.T) {
	opts := Options{Direction: "td"}
	if err := opts.ValidateForLayout(); err != nil {
		t.Fatal(err)
	}
	if opts.Direction != "TB" {
		t.Errorf("Direction = %q, want TB", opts.Direction)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Direction: "LR"}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	first := opts.LayoutKeyOpts()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.LayoutKeyOpts() != first {
		t.Error("layout options changed on second call")
	}
}

func TestOptionsLayoutConfig(t *testing.T) {
	opts := Options{Direction: "RL", Engine: layout.EngineGraphviz, NoOverlapResolve: true}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	cfg := opts.LayoutConfig()
	if cfg.Direction != "RL" || cfg.Engine != layout.EngineGraphviz || !cfg.SkipOverlapResolve {
		t.Errorf("LayoutConfig() = %+v", cfg)
	}
	if cfg.Overlap != layout.DefaultOverlapOptions() {
		t.Errorf("Overlap = %+v, want defaults", cfg.Overlap)
	}

	if (&Options{}).LayoutConfig().SkipOverlapResolve {
		t.Error("overlap resolution should be on by default")
	}

	zero := Options{NodeSpacing: layout.Spacing(0), RankSpacing: layout.Spacing(0)}
	if err := zero.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	cfg = zero.LayoutConfig()
	if *cfg.NodeSpacing != 0 || *cfg.RankSpacing != 0 {
		t.Errorf("explicit zero spacing = %v/%v, want 0/0", *cfg.NodeSpacing, *cfg.RankSpacing)
	}
	if k := zero.LayoutKeyOpts(); k.NodeSpacing != 0 || k.RankSpacing != 0 {
		t.Errorf("key spacing = %v/%v", k.NodeSpacing, k.RankSpacing)
	}
}

func TestOptionsGraphKeyOpts(t *testing.T) {
	k := (&Options{}).GraphKeyOpts()
	if !k.GroupTypeOverride || k.ForceFallback {
		t.Errorf("default GraphKeyOpts = %+v", k)
	}
	k = (&Options{NoGroupTypeOverride: true, ForceFallback: true}).GraphKeyOpts()
	if k.GroupTypeOverride || !k.ForceFallback {
		t.Errorf("GraphKeyOpts = %+v", k)
	}
}
