package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listGroupStyle    = lipgloss.NewStyle().Foreground(colorOK)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorText)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorFaint)
)

// inspectCommand creates the inspect command for browsing a layout file.
func (c *CLI) inspectCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "inspect [layout.json]",
		Short: "Browse the nodes of a layout",
		Long: `Browse the nodes of a layout produced by 'layout' or 'compile'.

Nodes are listed in layout order with group members indented under their
group. Positions are shown in page coordinates. The selected node's label,
edges and metadata are shown below the table.

Without a terminal, or with --plain, the table is printed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := graph.ReadLayoutFile(args[0])
			if err != nil {
				return fmt.Errorf("load layout %s: %w", args[0], err)
			}

			m := NewLayoutModel(l)
			if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
				m.Height = len(m.Rows)
				fmt.Fprintln(cmd.OutOrStdout(), m.renderTable(-1))
				return nil
			}

			if _, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run(); err != nil {
				return fmt.Errorf("inspect: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the node table without the interactive view")
	return cmd
}

// =============================================================================
// LayoutModel - Interactive node browser
// =============================================================================

// InspectRow is one node of the browser with its page position resolved.
type InspectRow struct {
	Node  diagram.PositionedNode
	Depth int
	PageX float64
	PageY float64
}

// LayoutModel is the bubbletea model for browsing a layout.
type LayoutModel struct {
	Layout graph.Layout
	Rows   []InspectRow
	Cursor int
	Height int
	Offset int
}

// NewLayoutModel creates a browser over l.
func NewLayoutModel(l graph.Layout) LayoutModel {
	return LayoutModel{
		Layout: l,
		Rows:   inspectRows(l),
		Height: 15,
	}
}

func (m LayoutModel) Init() tea.Cmd {
	return nil
}

func (m LayoutModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Rows)-1, 0)
			m.Offset = max(len(m.Rows)-m.Height, 0)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-14, 5)
	}
	return m, nil
}

func (m LayoutModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Layout"))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s · %.0f×%.0f · %d nodes · %d edges",
		m.Layout.Direction, m.Layout.Width, m.Layout.Height, len(m.Layout.Nodes), len(m.Layout.Edges))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.renderTable(m.Cursor))
	b.WriteString("\n\n")

	if len(m.Rows) > 0 {
		b.WriteString(m.renderDetail(m.Rows[m.Cursor].Node))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))
	}
	return b.String()
}

// renderTable renders the visible window of rows. A negative cursor
// highlights nothing.
func (m LayoutModel) renderTable(cursor int) string {
	end := min(m.Offset+m.Height, len(m.Rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}
		rows = append(rows, []string{
			marker,
			strings.Repeat("  ", r.Depth) + r.Node.ID,
			string(r.Node.Type),
			string(r.Node.Category),
			fmt.Sprintf("%.0f,%.0f", r.PageX, r.PageY),
			fmt.Sprintf("%.0f×%.0f", r.Node.Width, r.Node.Height),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorMuted).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("", "Node", "Type", "Category", "Position", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == cursor:
				return listSelectedStyle
			case m.Rows[idx].Node.IsGroup():
				return listGroupStyle
			case col >= 4:
				return listDimStyle
			default:
				return listNormalStyle
			}
		})

	return t.Render()
}

func (m LayoutModel) renderDetail(n diagram.PositionedNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styleNodeID.Render(n.ID), styleText.Render(n.Label))
	if n.ParentID != "" {
		fmt.Fprintf(&b, "  %s %s\n", listDimStyle.Render("group"), n.ParentID)
	}

	var out, in []string
	for _, e := range m.Layout.Edges {
		if e.Source == n.ID {
			out = append(out, e.Target)
		}
		if e.Target == n.ID {
			in = append(in, e.Source)
		}
	}
	if len(in) > 0 {
		fmt.Fprintf(&b, "  %s %s\n", listDimStyle.Render("from "+iconArrow), strings.Join(in, ", "))
	}
	if len(out) > 0 {
		fmt.Fprintf(&b, "  %s %s\n", listDimStyle.Render(iconArrow+" to"), strings.Join(out, ", "))
	}

	keys := make([]string, 0, len(n.Metadata))
	for k := range n.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s %v\n", listDimStyle.Render(k), n.Metadata[k])
	}
	return b.String()
}

// inspectRows lists nodes in layout order with members resolved to page
// coordinates. Layouts place every group before its members.
func inspectRows(l graph.Layout) []InspectRow {
	origin := make(map[string][2]float64, len(l.Nodes))
	rows := make([]InspectRow, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		r := InspectRow{Node: n, PageX: n.X, PageY: n.Y}
		if o, ok := origin[n.ParentID]; ok {
			r.Depth = 1
			r.PageX += o[0]
			r.PageY += o[1]
		}
		if n.IsGroup() {
			origin[n.ID] = [2]float64{r.PageX, r.PageY}
		}
		rows = append(rows, r)
	}
	return rows
}
