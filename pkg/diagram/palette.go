package diagram

// Palette is an ordered list of group colors. Colors are assigned by group
// position modulo the palette length, so the same group order always yields
// the same colors.
type Palette []string

// DefaultPalette is the swimlane palette used when callers do not inject one.
var DefaultPalette = Palette{
	"#3b82f6", // blue
	"#10b981", // emerald
	"#f59e0b", // amber
	"#8b5cf6", // violet
	"#ef4444", // red
	"#06b6d4", // cyan
	"#ec4899", // pink
	"#84cc16", // lime
}

// Color returns the color for the i-th group. An empty palette yields "".
func (p Palette) Color(i int) string {
	if len(p) == 0 || i < 0 {
		return ""
	}
	return p[i%len(p)]
}

// Apply returns a copy of nodes with group colors assigned in order of
// appearance. Non-group nodes are copied unchanged.
func (p Palette) Apply(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	gi := 0
	for i, n := range nodes {
		if n.IsGroup() {
			n.Color = p.Color(gi)
			gi++
		}
		out[i] = n
	}
	return out
}
