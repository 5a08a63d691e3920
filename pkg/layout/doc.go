// Package layout assigns coordinates to a compiled flowchart.
//
// # Overview
//
// [Engine.Layout] takes a [diagram.Graph] and returns a [diagram.Layout]
// with one positioned node per input node and the edges unchanged. Node
// sizes come from per-type [Footprint]s.
//
// # Flat Graphs
//
// Without group nodes every node is handed to the [Placer] at once. The
// result is optionally cleaned up by [ResolveOverlaps], a bounded pairwise
// relaxation that also enforces the page [Margin].
//
// # Grouped Graphs
//
// With groups, each group is placed in isolation using only the edges
// between its own members. Members are shifted so their bounding box sits
// [GroupPadding] inside the group, below a [TitleBarHeight] title bar, and
// keep these group-local coordinates in the output. Groups are stacked top
// to bottom at the margin, [GroupGap] apart. Ungrouped nodes are placed
// together and moved [OrphanGap] to the right of the widest group. Edges
// that cross partitions never influence placement.
//
// Output order is each group followed by its members, then ungrouped nodes.
//
// # Placers
//
// [Sugiyama] is the pure Go layered placer built on package dag.
// [Graphviz] runs the dot engine in-process through go-graphviz.
package layout
