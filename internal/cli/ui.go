package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/layout"
	"github.com/matzehuels/stackflow/pkg/parser"
	"github.com/matzehuels/stackflow/pkg/pipeline"
)

// Terminal palette shared by the reporter, the spinner and inspect.
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
	colorText   = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleNodeID  = lipgloss.NewStyle().Foreground(colorAccent)
	styleLink    = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	styleFaint   = lipgloss.NewStyle().Foreground(colorFaint)
	styleText    = lipgloss.NewStyle().Foreground(colorText)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarn)
	styleCommand = lipgloss.NewStyle().Foreground(colorLink)
	styleKey     = lipgloss.NewStyle().Foreground(colorMuted).Width(12)

	styleIconOK      = lipgloss.NewStyle().Foreground(colorOK)
	styleIconFail    = lipgloss.NewStyle().Foreground(colorFail)
	styleIconNote    = lipgloss.NewStyle().Foreground(colorMuted)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)

	styleCached   = lipgloss.NewStyle().Foreground(colorOK)
	styleFresh    = lipgloss.NewStyle().Foreground(colorMuted)
	styleFallback = lipgloss.NewStyle().Foreground(colorWarn)
)

const (
	iconOK    = "✓"
	iconFail  = "✗"
	iconWarn  = "!"
	iconNote  = "›"
	iconArrow = "→"
	separator = " · "
)

// reporter writes human status lines for a command. Graph and layout data
// go to stdout; status goes to stderr so the two never mix in a pipe.
type reporter struct {
	w io.Writer
}

func newReporter(cmd *cobra.Command) *reporter {
	return &reporter{w: cmd.ErrOrStderr()}
}

func (r *reporter) line(s string) {
	fmt.Fprintln(r.w, s)
}

func (r *reporter) done(format string, args ...any) {
	r.line(styleIconOK.Render(iconOK) + " " + fmt.Sprintf(format, args...))
}

func (r *reporter) fail(format string, args ...any) {
	r.line(styleIconFail.Render(iconFail) + " " + fmt.Sprintf(format, args...))
}

func (r *reporter) warn(format string, args ...any) {
	r.line(styleWarning.Render(iconWarn) + " " + styleWarning.Render(fmt.Sprintf(format, args...)))
}

func (r *reporter) note(format string, args ...any) {
	r.line(styleIconNote.Render(iconNote) + " " + fmt.Sprintf(format, args...))
}

func (r *reporter) detail(format string, args ...any) {
	r.line("  " + styleFaint.Render(fmt.Sprintf(format, args...)))
}

func (r *reporter) file(path string) {
	if path == "" || path == "-" {
		return
	}
	r.line("  " + styleFaint.Render(iconArrow) + " " + styleText.Render(path))
}

func (r *reporter) field(key, value string) {
	r.line(styleKey.Render(key) + " " + styleText.Render(value))
}

func (r *reporter) next(description, command string) {
	r.line("")
	r.line(styleFaint.Render(description+":") + " " + styleCommand.Render(command))
}

// graphSummary is the digest printed after a graph is compiled or laid out.
type graphSummary struct {
	Nodes   int
	Edges   int
	Groups  int
	Path    parser.Path
	Dropped int
	Invalid int
	Cached  bool
}

func summarizeGraph(g diagram.Graph, cached bool) graphSummary {
	return graphSummary{
		Nodes:  len(g.Nodes) - len(g.Groups()),
		Edges:  len(g.Edges),
		Groups: len(g.Groups()),
		Cached: cached,
	}
}

func summarizeCompile(res *parser.Result, cached bool) graphSummary {
	s := summarizeGraph(res.Graph, cached)
	s.Path = res.Path
	s.Dropped = res.DroppedEdges
	s.Invalid = res.InvalidRecords
	return s
}

func summarizePipeline(res *pipeline.Result) graphSummary {
	s := summarizeGraph(res.Graph, res.CacheInfo.CompileHit && res.CacheInfo.LayoutHit)
	s.Path = res.Path
	s.Dropped = res.Stats.DroppedEdges
	s.Invalid = res.Stats.InvalidRecords
	return s
}

// parts returns the unstyled fields of the summary in display order.
func (s graphSummary) parts() []string {
	parts := []string{plural(s.Nodes, "node"), plural(s.Edges, "edge")}
	if s.Groups > 0 {
		parts = append(parts, plural(s.Groups, "group"))
	}
	if s.Path != "" {
		parts = append(parts, string(s.Path))
	}
	if s.Dropped > 0 {
		parts = append(parts, plural(s.Dropped, "dropped edge"))
	}
	if s.Invalid > 0 {
		parts = append(parts, plural(s.Invalid, "invalid record"))
	}
	if s.Cached {
		parts = append(parts, "cached")
	} else {
		parts = append(parts, "fresh")
	}
	return parts
}

func (r *reporter) summary(s graphSummary) {
	parts := s.parts()
	styled := make([]string, len(parts))
	for i, p := range parts {
		switch {
		case p == "cached":
			styled[i] = styleCached.Render(p)
		case p == "fresh":
			styled[i] = styleFresh.Render(p)
		case s.Path == parser.PathFallback && p == string(s.Path):
			styled[i] = styleFallback.Render(p)
		default:
			styled[i] = styleFaint.Render(p)
		}
	}
	r.line("  " + strings.Join(styled, styleFaint.Render(separator)))
}

// fallback explains why the heuristic parser produced the graph.
func (r *reporter) fallback(reason string) {
	if reason == "" {
		return
	}
	r.warn("Grammar rejected the input; used the heuristic parser")
	r.detail("%s", reason)
}

// layoutReport warns about a layout that did not fully settle.
func (r *reporter) layoutReport(overlap *layout.Report, unplaced int) {
	if overlap != nil && !overlap.Converged {
		r.warn("Overlaps remain after %d resolver passes", overlap.Passes)
	}
	if unplaced > 0 {
		r.warn("%s could not be placed and sit at the origin", plural(unplaced, "node"))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
