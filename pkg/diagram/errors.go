package diagram

import "errors"

var (
	// ErrEmptyNodeID is returned by [Graph.Validate] when a node has no id.
	ErrEmptyNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.Validate] when two nodes share an id.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrSelfParent is returned by [Graph.Validate] when a node names itself as parent.
	ErrSelfParent = errors.New("node is its own parent")

	// ErrInvalidParent is returned by [Graph.Validate] when a parent id does not
	// reference an existing group node.
	ErrInvalidParent = errors.New("parent is not an existing group")

	// ErrDanglingEdge is returned by [Graph.Validate] when an edge endpoint is
	// not in the node set.
	ErrDanglingEdge = errors.New("edge references unknown node")
)
