// Package transform provides the graph transformations behind layered
// placement.
//
// # Overview
//
// A directed graph taken straight from a diagram is rarely ready for a
// layered drawing. [Layer] applies the steps in order:
//
//   - [BreakCycles] reverses back edges so the graph becomes acyclic
//   - [AssignLayers] places every node one row below its deepest parent
//   - [Subdivide] splits edges that span several rows into single-row hops
//   - [OrderRows] reorders each row to reduce edge crossings
//
// Every step iterates nodes and edges in insertion order, so identical
// input always produces identical rows.
//
// # Row Ordering
//
// [OrderRows] alternates downward and upward barycentric sweeps. After each
// sweep a transpose pass swaps adjacent nodes whenever that removes
// crossings. The ordering with the fewest crossings seen across all sweeps
// is returned, measured with [dag.CountCrossings].
package transform
