package cli

import (
	"errors"
	"io"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackflow/internal/api"
	"github.com/matzehuels/stackflow/pkg/cache"
	pkgerrors "github.com/matzehuels/stackflow/pkg/errors"
	"github.com/matzehuels/stackflow/pkg/layout"
	"github.com/matzehuels/stackflow/pkg/pipeline"
)

// Config is the on-disk configuration. Every command flag that maps to a
// field here overrides it only when given explicitly.
//
//	[compile]
//	force_fallback = false
//	palette = ["#e3f2fd", "#fce4ec"]
//
//	[layout]
//	direction = "LR"
//	engine = "graphviz"
//
//	[cache]
//	backend = "redis"
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = "0.0.0.0:8080"
//	request_timeout = "10s"
type Config struct {
	Compile CompileConfig `toml:"compile"`
	Layout  LayoutConfig  `toml:"layout"`
	Cache   cache.Config  `toml:"cache"`
	Server  api.Config    `toml:"server"`
}

// CompileConfig holds parser settings.
type CompileConfig struct {
	ForceFallback       bool     `toml:"force_fallback"`
	NoGroupTypeOverride bool     `toml:"no_group_type_override"`
	Palette             []string `toml:"palette"`
}

// LayoutConfig holds layout engine settings.
type LayoutConfig struct {
	Direction        string  `toml:"direction"`
	Engine           string  `toml:"engine"`
	NodeSpacing      float64 `toml:"node_spacing"`
	RankSpacing      float64 `toml:"rank_spacing"`
	NoOverlapResolve bool    `toml:"no_overlap_resolve"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	cfg := Config{
		Layout: LayoutConfig{
			Engine:      pipeline.DefaultEngine,
			NodeSpacing: pipeline.DefaultNodeSpacing,
			RankSpacing: pipeline.DefaultRankSpacing,
		},
	}
	cfg.Server.SetDefaults()
	return cfg
}

// LoadConfig reads the TOML file at path over [DefaultConfig]. An empty
// path means the default location, which may be absent; an explicit path
// must exist. Unknown keys are logged and ignored.
func LoadConfig(path string, logger *log.Logger) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if explicit {
				return cfg, pkgerrors.Wrap(pkgerrors.ErrCodeFileNotFound, err, "config file %s not found", path)
			}
			return DefaultConfig(), nil
		}
		return cfg, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	for _, key := range md.Undecoded() {
		logger.Warn("unknown config key", "key", key.String(), "file", path)
	}
	cfg.Server.SetDefaults()
	logger.Debug("loaded config", "file", path)
	return cfg, nil
}

// PipelineOptions converts the config into pipeline options.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		ForceFallback:       c.Compile.ForceFallback,
		NoGroupTypeOverride: c.Compile.NoGroupTypeOverride,
		Palette:             c.Compile.Palette,
		Direction:           c.Layout.Direction,
		Engine:              c.Layout.Engine,
		NodeSpacing:         layout.Spacing(c.Layout.NodeSpacing),
		RankSpacing:         layout.Spacing(c.Layout.RankSpacing),
		NoOverlapResolve:    c.Layout.NoOverlapResolve,
	}
}

// writeConfig encodes cfg as TOML.
func writeConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
