package layout

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

// Placement engines.
const (
	EngineSugiyama = "sugiyama"
	EngineGraphviz = "graphviz"
)

// Defaults applied by [Config.SetDefaults].
const (
	DefaultNodeSpacing = 50.0
	DefaultRankSpacing = 70.0
	DefaultEngine      = EngineSugiyama
)

// Group and page geometry, in pixels.
const (
	GroupPadding     = 40.0
	TitleBarHeight   = 40.0
	GroupGap         = 60.0
	Margin           = 50.0
	OrphanGap        = 100.0
	EmptyGroupWidth  = 300.0
	EmptyGroupHeight = 200.0
)

var (
	// ErrInvalidDirection is returned for a direction other than TB, TD, BT, LR or RL.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInvalidSpacing is returned for a negative node or rank spacing.
	ErrInvalidSpacing = errors.New("invalid spacing")

	// ErrInvalidEngine is returned for an unknown placement engine.
	ErrInvalidEngine = errors.New("invalid engine")
)

// Config controls a layout run. The zero value is usable: nil spacing and an
// empty engine are replaced by defaults and the overlap resolver runs unless
// SkipOverlapResolve is set. An empty Direction means "use the graph's own
// direction", falling back to TB.
type Config struct {
	Direction diagram.Direction

	// NodeSpacing and RankSpacing are pixel gaps. Nil selects the default;
	// an explicit zero packs nodes edge to edge.
	NodeSpacing *float64
	RankSpacing *float64

	SkipOverlapResolve bool
	Engine             string

	// Overlap tunes the resolver used on flat layouts.
	Overlap OverlapOptions

	// Logger receives placement diagnostics. Nil discards them.
	Logger *log.Logger
}

// Spacing returns a pointer to v for the spacing fields of [Config].
func Spacing(v float64) *float64 { return &v }

// DefaultConfig returns the configuration used when the caller sets nothing.
func DefaultConfig() Config {
	return Config{
		NodeSpacing: Spacing(DefaultNodeSpacing),
		RankSpacing: Spacing(DefaultRankSpacing),
		Engine:      DefaultEngine,
		Overlap:     DefaultOverlapOptions(),
	}
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.NodeSpacing == nil {
		c.NodeSpacing = Spacing(DefaultNodeSpacing)
	}
	if c.RankSpacing == nil {
		c.RankSpacing = Spacing(DefaultRankSpacing)
	}
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	c.Overlap.SetDefaults()
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// nodeSpacing and rankSpacing read the gaps, treating nil as the default.
func (c Config) nodeSpacing() float64 {
	if c.NodeSpacing == nil {
		return DefaultNodeSpacing
	}
	return *c.NodeSpacing
}

func (c Config) rankSpacing() float64 {
	if c.RankSpacing == nil {
		return DefaultRankSpacing
	}
	return *c.RankSpacing
}

// Validate checks the configuration after defaults are applied and
// normalizes the direction ("TD" becomes "TB").
func (c *Config) Validate() error {
	if c.Direction != "" {
		d, ok := diagram.ParseDirection(string(c.Direction))
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidDirection, c.Direction)
		}
		c.Direction = d
	}
	if c.nodeSpacing() < 0 || c.rankSpacing() < 0 {
		return fmt.Errorf("%w: node=%g rank=%g", ErrInvalidSpacing, c.nodeSpacing(), c.rankSpacing())
	}
	switch c.Engine {
	case EngineSugiyama, EngineGraphviz:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEngine, c.Engine)
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and validates in one call.
func (c *Config) ValidateAndSetDefaults() error {
	c.SetDefaults()
	return c.Validate()
}

func (c Config) direction(g diagram.Graph) diagram.Direction {
	if c.Direction != "" {
		return c.Direction
	}
	if g.Direction != "" {
		return g.Direction
	}
	return diagram.DirectionTB
}
