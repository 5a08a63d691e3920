// Package diagram defines the canonical flowchart model shared by the parser
// and the layout engine.
//
// # Overview
//
// Every diagram source, regardless of which parser recognized it, is normalized
// into the same three concepts:
//
//   - [Node]: a vertex with a semantic [NodeType], a visibility [Category],
//     a sanitized label and an optional parent group
//   - [Edge]: a connection between two existing nodes with stroke hints
//   - Group: a [Node] whose Type is [TypeGroup]; it carries a palette color
//
// After layout, nodes become [PositionedNode] values with concrete top-left
// coordinates and sizes, collected in a [Layout].
//
// # Classification
//
// Node types are inferred by an ordered list of [Rule] values ([DefaultRules]).
// The first rule that matches wins, so shape signals from the notation take
// precedence over keyword matching on labels:
//
//	t := diagram.Classify(diagram.ShapeCylinder, "Orders")   // TypeDatabase
//	t = diagram.Classify(diagram.ShapeSquare, "Check stock?") // TypeDecision
//
// Categories are inferred separately by [InferCategory]: the enclosing group's
// label and id are consulted first, then the node's own type and label.
//
// # Labels
//
// [SanitizeLabel] strips line-break markers and markup, decodes entity codes and
// collapses whitespace. It is idempotent.
//
// # Ownership
//
// All types are plain values. Graphs are constructed fresh for every parse and
// never shared between calls, so no type in this package is synchronized.
package diagram
