// Package raw defines the fixed record types that every flowchart parser
// produces before graph construction.
//
// Parsers never hand loosely-typed data to the graph builder. They emit
// [Vertex], [Edge] and [Subgraph] records, which are validated at the
// ingestion boundary with their Validate methods. Invalid records are dropped
// by the builder and counted.
package raw

import (
	"errors"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

var (
	// ErrMissingID is returned when a vertex or subgraph has no identifier.
	ErrMissingID = errors.New("record has no id")

	// ErrMissingEndpoint is returned when an edge lacks a source or target.
	ErrMissingEndpoint = errors.New("edge endpoint is empty")
)

// Vertex is a node declaration as recognized by a parser.
type Vertex struct {
	ID      string
	Text    string        // raw bracket contents, not yet sanitized
	Shape   diagram.Shape // ShapeNone when the node was only referenced
	Classes []string      // :::class suffixes

	// Implicit marks vertices that were never declared with a shape and only
	// appeared as an edge endpoint or bare identifier.
	Implicit bool
}

// Validate reports whether the record can be turned into a node.
func (v Vertex) Validate() error {
	if v.ID == "" {
		return ErrMissingID
	}
	return nil
}

// Edge is a link statement between two identifiers.
type Edge struct {
	Source   string
	Target   string
	Text     string // raw label, not yet sanitized
	Stroke   diagram.StrokeStyle
	Directed bool
}

// Validate reports whether both endpoints are named.
func (e Edge) Validate() error {
	if e.Source == "" || e.Target == "" {
		return ErrMissingEndpoint
	}
	return nil
}

// Subgraph is a grouping region with its member identifiers in declaration
// order. Members may include the ids of nested subgraphs.
type Subgraph struct {
	ID      string
	Title   string
	Members []string
}

// Validate reports whether the subgraph has an identifier.
func (s Subgraph) Validate() error {
	if s.ID == "" {
		return ErrMissingID
	}
	return nil
}

// Interpretation is the read side of a parse: the vertices, edges and
// subgraphs found in a diagram source.
type Interpretation interface {
	Vertices() []Vertex
	Edges() []Edge
	Subgraphs() []Subgraph
}

// Records is a plain slice-backed [Interpretation].
type Records struct {
	V []Vertex
	E []Edge
	S []Subgraph
}

func (r *Records) Vertices() []Vertex { return r.V }
func (r *Records) Edges() []Edge { return r.E }
func (r *Records) Subgraphs() []Subgraph { return r.S }
