// Package dag provides a directed graph organized into rows (ranks), the data
// structure behind the native layered placement in package layout.
//
// # Overview
//
// Layered (Sugiyama-style) drawing assigns every node to a row, splits edges
// that span several rows into chains of single-row segments, and then orders
// each row to reduce edge crossings. This package holds the graph during
// those steps; the steps themselves live in the [transform] subpackage.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "start", Width: 120, Height: 44})
//	g.AddNode(dag.Node{ID: "check", Width: 140, Height: 140, Row: 1})
//	g.AddEdge(dag.Edge{From: "start", To: "check"})
//
// # Determinism
//
// Nodes, rows, sources and sinks are always returned in insertion order.
// Two graphs built from the same input produce the same layering and the
// same row orderings.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] use a Fenwick tree to count
// inversions in O(E log V) time per pair of rows.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use.
//
// [transform]: github.com/matzehuels/stackflow/pkg/dag/transform
package dag
